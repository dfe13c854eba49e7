package handlers

import (
	"context"
	"net/http"
	"songshop/internal/bot"
	"songshop/internal/config"
	"songshop/internal/container"
	"songshop/internal/services"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func WebhookHandler(container *container.Container) http.HandlerFunc {
	handler := bot.NewHandler(
		container.SongService,
		container.GenreService,
		container.UserService,
		container.Sessions,
		container.Telegram,
		config.SupportContact(),
		container.Logger,
	)

	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		update, err := services.ParseTelegramRequest(r)
		if err != nil {
			container.Logger.WithError(err).Error("Error parsing request")
			http.Error(w, "Bad request", http.StatusBadRequest)
			return
		}

		container.Logger.WithFields(logrus.Fields{
			"request_id": uuid.NewString(),
			"update_id":  update.UpdateId,
		}).Info("Update received")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)

		go func() {
			defer cancel()
			handler.ProcessUpdate(ctx, update)
		}()

		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}
