package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// PartitionLockKey returns the lease key guarding schedule mutations of one cohort partition
func (r *CacheKeyStruct) PartitionLockKey(partition string) string {
	return fmt.Sprintf("lock:schedule:%s", partition)
}

// ScheduleEventsChannel returns the Redis PubSub channel carrying schedule changes of a partition
func (r *CacheKeyStruct) ScheduleEventsChannel(partition string) string {
	return fmt.Sprintf("schedule:%s:events", partition)
}

var CacheKey = NewCacheKeyStruct()
