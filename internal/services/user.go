package services

import (
	"context"
	"errors"
	"songshop/internal/models"
	"songshop/internal/repository"

	"github.com/sirupsen/logrus"
)

type UserService struct {
	users    repository.UserRepository
	wishlist repository.WishlistRepository
	history  repository.HistoryRepository
	logger   *logrus.Logger
}

func NewUserService(
	users repository.UserRepository,
	wishlist repository.WishlistRepository,
	history repository.HistoryRepository,
	logger *logrus.Logger,
) *UserService {
	return &UserService{users: users, wishlist: wishlist, history: history, logger: logger}
}

// GetOrCreate registers a user on first contact and keeps the username in
// sync with what the platform last reported.
func (s *UserService) GetOrCreate(ctx context.Context, id, username string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err == nil {
		if user.Username != username && username != "" {
			if err := s.users.UpdateUsername(ctx, id, username); err != nil {
				s.logger.WithError(err).Warn("Failed to sync username")
			} else {
				user.Username = username
			}
		}
		return user, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	user = &models.User{ID: id, Username: username}
	if err := s.users.Create(ctx, user); err != nil {
		// Lost a create race: the row exists now.
		if errors.Is(err, repository.ErrConflict) {
			return s.users.GetByID(ctx, id)
		}
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"user_id":  id,
		"username": username,
	}).Info("User created")
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.users.GetByUsername(ctx, username)
}

func (s *UserService) SetStaff(ctx context.Context, id string, isStaff bool) error {
	return s.users.UpdateRole(ctx, id, isStaff)
}

// AddToWishlist is idempotent.
func (s *UserService) AddToWishlist(ctx context.Context, userID string, songID int) error {
	return s.wishlist.Add(ctx, userID, songID)
}

func (s *UserService) RemoveFromWishlist(ctx context.Context, userID string, songID int) error {
	return s.wishlist.Remove(ctx, userID, songID)
}

func (s *UserService) WishlistSongIDs(ctx context.Context, userID string) ([]int, error) {
	return s.wishlist.GetSongIDs(ctx, userID)
}

// LogView appends a history event. Failures are logged, not surfaced: the
// event log must never break the user-facing flow.
func (s *UserService) LogView(ctx context.Context, userID, songTitle string, action models.HistoryAction) {
	if _, err := s.history.Log(ctx, userID, songTitle, action); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"action":  action,
		}).Error("Failed to log history event")
	}
}

func (s *UserService) History(ctx context.Context, userID string) ([]models.ViewHistory, error) {
	return s.history.GetByUser(ctx, userID)
}
