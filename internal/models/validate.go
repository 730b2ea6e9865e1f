package models

import (
	"errors"
	"fmt"
)

// ErrInvalid 数据不满足约束
var ErrInvalid = errors.New("invalid payload")

// ValidationError 字段校验失败
type ValidationError struct {
	Entity string
	ID     int64
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.ID != 0 {
		return fmt.Sprintf("invalid %s %d: %s %s", e.Entity, e.ID, e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s %s", e.Entity, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

func invalid(entity string, id int64, field, reason string) error {
	return &ValidationError{Entity: entity, ID: id, Field: field, Reason: reason}
}

func checkBatteryLevel(entity, field string, level *int) error {
	if level == nil {
		return nil
	}
	if *level < 0 || *level > 100 {
		return invalid(entity, 0, field, fmt.Sprintf("out of range: %d", *level))
	}
	return nil
}

// ValidateCars 校验车辆列表 (ID 唯一)
func ValidateCars(cars []Car) error {
	seen := make(map[int64]struct{}, len(cars))
	for _, c := range cars {
		if _, ok := seen[c.ID]; ok {
			return invalid("car", c.ID, "car_id", "duplicate")
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}
