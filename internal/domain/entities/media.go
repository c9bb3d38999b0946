package entities

import (
	"encoding/base64"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// MediaFile is an uploaded audio or video file held for the lifetime of a session
type MediaFile struct {
	Name     string
	MIMEType string
	Data     []byte
}

// MediaPayload is the portable encoding handed to the transcription collaborator
type MediaPayload struct {
	MIMEType string
	Base64   string
}

// NewMediaFile builds a media file, trusting the declared content type only when it is
// an audio or video type and sniffing the bytes otherwise.
func NewMediaFile(name, declaredType string, data []byte) *MediaFile {
	return &MediaFile{
		Name:     name,
		MIMEType: ResolveMIMEType(declaredType, data),
		Data:     data,
	}
}

// ResolveMIMEType picks the media type for an upload
func ResolveMIMEType(declaredType string, data []byte) string {
	if mt, _, err := mime.ParseMediaType(declaredType); err == nil && isAVType(mt) {
		return mt
	}
	detected := mimetype.Detect(data)
	return detected.String()
}

// IsVideo reports whether the file carries a video container
func (f *MediaFile) IsVideo() bool {
	return f != nil && strings.HasPrefix(f.MIMEType, "video/")
}

// IsMedia reports whether the file is audio or video at all
func (f *MediaFile) IsMedia() bool {
	return f != nil && isAVType(f.MIMEType)
}

// Size returns the payload size in bytes
func (f *MediaFile) Size() int {
	if f == nil {
		return 0
	}
	return len(f.Data)
}

// Payload encodes the file for the transcription collaborator
func (f *MediaFile) Payload() MediaPayload {
	return MediaPayload{
		MIMEType: f.MIMEType,
		Base64:   base64.StdEncoding.EncodeToString(f.Data),
	}
}

// DataURL renders the payload as a data: URL
func (p MediaPayload) DataURL() string {
	return "data:" + p.MIMEType + ";base64," + p.Base64
}

// Decode returns the raw bytes of the payload
func (p MediaPayload) Decode() ([]byte, error) {
	return base64.StdEncoding.DecodeString(p.Base64)
}

func isAVType(mt string) bool {
	return strings.HasPrefix(mt, "audio/") || strings.HasPrefix(mt, "video/")
}
