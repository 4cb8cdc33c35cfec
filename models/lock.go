package models

import "time"

// SchedulerLock holds the structure for the scheduler_locks collection in mongo
type SchedulerLock struct {
	Name       string    `bson:"_id"`
	InstanceID string    `bson:"instanceId"`
	AcquiredAt time.Time `bson:"acquiredAt"`
	ExpiresAt  time.Time `bson:"expiresAt"`
}
