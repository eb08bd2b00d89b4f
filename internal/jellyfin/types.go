package jellyfin

import "time"

// Item types used in IncludeItemTypes and returned in Item.Type.
const (
	TypeMovie   = "Movie"
	TypeSeries  = "Series"
	TypeSeason  = "Season"
	TypeEpisode = "Episode"
)

// Stream types reported in MediaStream.Type.
const (
	StreamVideo    = "Video"
	StreamAudio    = "Audio"
	StreamSubtitle = "Subtitle"
)

// Item is the subset of a Jellyfin BaseItemDto the client consumes.
// Slices and pointers are nil when the server omits the field.
type Item struct {
	ID                string            `json:"Id"`
	Name              string            `json:"Name"`
	Type              string            `json:"Type"`
	DateCreated       string            `json:"DateCreated,omitempty"`
	Container         string            `json:"Container,omitempty"`
	RunTimeTicks      *int64            `json:"RunTimeTicks,omitempty"`
	ImageTags         map[string]string `json:"ImageTags,omitempty"`
	ParentID          string            `json:"ParentId,omitempty"`
	SeriesID          string            `json:"SeriesId,omitempty"`
	SeasonID          string            `json:"SeasonId,omitempty"`
	Genres            []string          `json:"Genres,omitempty"`
	IndexNumber       *int              `json:"IndexNumber,omitempty"`
	ParentIndexNumber *int              `json:"ParentIndexNumber,omitempty"`
	MediaStreams      []MediaStream     `json:"MediaStreams,omitempty"`
	MediaSources      []MediaSource     `json:"MediaSources,omitempty"`
}

// MediaStream describes one video, audio or subtitle stream.
type MediaStream struct {
	Type           string `json:"Type,omitempty"`
	Language       string `json:"Language,omitempty"`
	Codec          string `json:"Codec,omitempty"`
	Width          *int   `json:"Width,omitempty"`
	Height         *int   `json:"Height,omitempty"`
	AverageBitrate *int64 `json:"AverageBitrate,omitempty"`
	Bitrate        *int64 `json:"Bitrate,omitempty"`
}

// MediaSource describes a playable file.
type MediaSource struct {
	Container    string `json:"Container,omitempty"`
	RunTimeTicks *int64 `json:"RunTimeTicks,omitempty"`
	Size         *int64 `json:"Size,omitempty"`
	Bitrate      *int64 `json:"Bitrate,omitempty"`
}

type itemsResponse struct {
	Items []Item `json:"Items"`
}

type authenticateRequest struct {
	Username string `json:"Username"`
	Pw       string `json:"Pw"`
}

type authenticateResponse struct {
	AccessToken string `json:"AccessToken"`
	User        struct {
		ID   string `json:"Id"`
		Name string `json:"Name"`
	} `json:"User"`
}

// AuthResult is a successful username/password login.
type AuthResult struct {
	AccessToken string
	UserID      string
	UserName    string
}

// ItemQuery parameterizes Users/{userId}/Items. Zero-valued optional fields are omitted.
type ItemQuery struct {
	UserID           string
	IncludeItemTypes string
	Recursive        bool
	Fields           string
	MinDateLastSaved *time.Time
	StartIndex       int
	Limit            int
	SeriesID         string
	ParentID         string
}
