package models

// PayloadKind distinguishes literal text from a forwarded media reference.
type PayloadKind string

const (
	PayloadText  PayloadKind = "text"
	PayloadMedia PayloadKind = "media"
)

// MediaKind is the platform media type preserved when a file is relayed.
type MediaKind string

const (
	MediaPhoto    MediaKind = "photo"
	MediaVideo    MediaKind = "video"
	MediaDocument MediaKind = "document"
	MediaAudio    MediaKind = "audio"
	MediaVoice    MediaKind = "voice"
	MediaSticker  MediaKind = "sticker"
)

// Valid reports whether k is one of the relayable media kinds.
func (k MediaKind) Valid() bool {
	switch k {
	case MediaPhoto, MediaVideo, MediaDocument, MediaAudio, MediaVoice, MediaSticker:
		return true
	}
	return false
}

// HasCaption reports whether the platform accepts a caption for this kind.
func (k MediaKind) HasCaption() bool {
	switch k {
	case MediaPhoto, MediaVideo, MediaDocument, MediaAudio:
		return true
	}
	return false
}

// Payload is a single message travelling from one session participant to the other.
type Payload struct {
	Kind PayloadKind `json:"kind"`
	// Text is the literal content of a text payload.
	Text string `json:"text,omitempty"`
	// Media, FileID and Caption describe a media payload. FileID is the
	// platform file handle, the file itself is never downloaded.
	Media   MediaKind `json:"media,omitempty"`
	FileID  string    `json:"file_id,omitempty"`
	Caption string    `json:"caption,omitempty"`
	// MessageID is the sender-side platform message id.
	MessageID int `json:"message_id,omitempty"`
}

// TextPayload builds a text payload.
func TextPayload(text string, messageID int) Payload {
	return Payload{Kind: PayloadText, Text: text, MessageID: messageID}
}

// MediaPayload builds a media payload. Captions are dropped for kinds that
// cannot carry one.
func MediaPayload(kind MediaKind, fileID, caption string, messageID int) Payload {
	if !kind.HasCaption() {
		caption = ""
	}
	return Payload{Kind: PayloadMedia, Media: kind, FileID: fileID, Caption: caption, MessageID: messageID}
}

// PendingMessage is a buffered copy of a relayed payload. Media entries keep
// only their metadata, so they are never replayed.
type PendingMessage struct {
	Kind      PayloadKind `json:"type"`
	Content   string      `json:"content,omitempty"`
	Media     MediaKind   `json:"media_type,omitempty"`
	MessageID int         `json:"message_id"`
}

// PendingFrom records a payload the way the pending buffer keeps it.
func PendingFrom(p Payload) PendingMessage {
	if p.Kind == PayloadMedia {
		return PendingMessage{Kind: PayloadMedia, Media: p.Media, MessageID: p.MessageID}
	}
	return PendingMessage{Kind: PayloadText, Content: p.Text, MessageID: p.MessageID}
}

// RatingAccumulator is the running total of post-chat scores for one user.
type RatingAccumulator struct {
	Total float64 `json:"total"`
	Count uint    `json:"count"`
}

// Average returns Total/Count, or zero when nothing was recorded.
func (r RatingAccumulator) Average() float64 {
	if r.Count == 0 {
		return 0
	}
	return r.Total / float64(r.Count)
}
