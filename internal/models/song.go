package models

import "fmt"

type SongType string

const (
	TypeUniversal SongType = "universal"
	TypeMale      SongType = "male"
	TypeFemale    SongType = "female"
	TypeDuet      SongType = "duet"
	TypeChildren  SongType = "children"
)

func SongTypes() []SongType {
	return []SongType{TypeUniversal, TypeMale, TypeFemale, TypeDuet, TypeChildren}
}

func ParseSongType(s string) (SongType, error) {
	for _, t := range SongTypes() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown song type %q", s)
}

type SongTempo string

const (
	TempoDance    SongTempo = "dance"
	TempoMidTempo SongTempo = "mid_tempo"
	TempoSlow     SongTempo = "slow"
)

func SongTempos() []SongTempo {
	return []SongTempo{TempoDance, TempoMidTempo, TempoSlow}
}

func ParseSongTempo(s string) (SongTempo, error) {
	for _, t := range SongTempos() {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("unknown song tempo %q", s)
}

// FileType tags the media attached to a song.
type FileType string

const (
	FileVideo FileType = "video"
	FileAudio FileType = "audio"
)

type Song struct {
	ID       int       `json:"id" db:"id"`
	AuthorID string    `json:"author_id" db:"author_id"`
	Title    string    `json:"title" db:"title"`
	Lyrics   *string   `json:"lyrics" db:"lyrics"`
	FileID   *string   `json:"file_id" db:"file_id"`
	FileType *FileType `json:"file_type" db:"file_type"`
	Type     SongType  `json:"type" db:"type"`
	Tempo    SongTempo `json:"tempo" db:"tempo"`
	Genres   []Genre   `json:"genres"`
}

// HasGenre reports whether the song carries a genre with the given
// (already normalized) title.
func (s *Song) HasGenre(title string) bool {
	for _, g := range s.Genres {
		if g.Title == title {
			return true
		}
	}
	return false
}

type Genre struct {
	ID    int    `json:"id" db:"id"`
	Title string `json:"title" db:"title"`
}
