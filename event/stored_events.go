package event

import "github.com/jinzhu/gorm"

var (
	EventPersistCreateFunc = eventPersistCreate
	LoadUnsyncedEventsFunc = loadUnsyncedEvents
	MarkEventSyncedFunc    = markEventSynced
)

func eventPersistCreate(record *EventRecord, db *gorm.DB) error {
	return db.Create(record).Error
}

func loadUnsyncedEvents(limit int, db *gorm.DB) ([]EventRecord, error) {
	var records []EventRecord
	if err := db.Where("synced = ?", false).Order("timestamp ASC").Limit(limit).Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func markEventSynced(record *EventRecord, db *gorm.DB) error {
	return db.Model(&EventRecord{}).Where("source_type = ? AND source_id = ? AND timestamp = ?",
		record.SourceType, record.SourceId, record.Timestamp).Update("synced", true).Error
}
