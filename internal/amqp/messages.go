package amqp

import (
	"encoding/json"
	"time"
)

// RecordSyncMessage asks the worker to mirror one saved record to the
// spreadsheet. It carries only the id; the worker fetches the full record
// from the database so the sheet always reflects the latest write.
type RecordSyncMessage struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewRecordSyncMessage(id int64) *RecordSyncMessage {
	return &RecordSyncMessage{
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *RecordSyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func RecordSyncMessageFromJSON(data []byte) (*RecordSyncMessage, error) {
	var msg RecordSyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
