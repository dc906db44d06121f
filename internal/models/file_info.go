package models

import "time"

// FileRecord is the server-side view of a stored file. Clients only ever see Name.
type FileRecord struct {
	Name       string    `json:"name" msgpack:"name"`
	StoredName string    `json:"storedName" msgpack:"stored_name"`
	Hash       string    `json:"hash" msgpack:"hash"`
	Size       int64     `json:"size" msgpack:"size"`
	UploadedAt time.Time `json:"uploadedAt" msgpack:"uploaded_at"`
	ModifiedAt time.Time `json:"modifiedAt" msgpack:"modified_at"`
}

// KeyEntry holds the encryption material for one stored blob.
type KeyEntry struct {
	Key      []byte `msgpack:"key"`
	Hash     string `msgpack:"hash"`
	Original string `msgpack:"original"`
}

// FileListResponse is the body of GET /files.
type FileListResponse struct {
	Files []string `json:"files"`
}

// OperationResponse is the body of every mutating endpoint. Exactly one of
// Message or Error is set.
type OperationResponse struct {
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// Failed reports whether the server answered with an error.
func (r *OperationResponse) Failed() bool {
	return r.Error != ""
}

// Text returns the string shown to the user: the message, or the error when
// no message is present.
func (r *OperationResponse) Text() string {
	if r.Message != "" {
		return r.Message
	}
	return r.Error
}
