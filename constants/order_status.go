package constants

import (
	"strings"
)

// OrderStatus is the lifecycle state of an order. Stored verbatim in the DB.
type OrderStatus string

const (
	OrderStatusInProgress OrderStatus = "in-progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusAbnormal   OrderStatus = "abnormal"
)

var allOrderStatuses = []OrderStatus{
	OrderStatusInProgress,
	OrderStatusCompleted,
	OrderStatusAbnormal,
}

// AllOrderStatuses returns the statuses in display order.
func AllOrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(allOrderStatuses))
	copy(out, allOrderStatuses)
	return out
}

func OrderStatusStrings() []string {
	result := make([]string, len(allOrderStatuses))
	for i, s := range allOrderStatuses {
		result[i] = string(s)
	}
	return result
}

// Label returns the Chinese display name used in exports.
func (s OrderStatus) Label() string {
	switch s {
	case OrderStatusInProgress:
		return "进行中"
	case OrderStatusCompleted:
		return "已完成"
	case OrderStatusAbnormal:
		return "异常"
	default:
		return string(s)
	}
}

// CanonicalizeStatus maps user input, English or Chinese, onto an OrderStatus.
func CanonicalizeStatus(input string) (OrderStatus, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return OrderStatusInProgress, false
	}

	// synonyms map
	synonyms := map[string]OrderStatus{
		"进行中":         OrderStatusInProgress,
		"处理中":         OrderStatusInProgress,
		"inprogress":  OrderStatusInProgress,
		"in_progress": OrderStatusInProgress,
		"open":        OrderStatusInProgress,
		"已完成":         OrderStatusCompleted,
		"完成":          OrderStatusCompleted,
		"done":        OrderStatusCompleted,
		"异常":          OrderStatusAbnormal,
		"overdue":     OrderStatusAbnormal,
		"逾期":          OrderStatusAbnormal,
	}
	if s, ok := synonyms[normalized]; ok {
		return s, true
	}

	for _, s := range allOrderStatuses {
		if normalized == string(s) {
			return s, true
		}
	}
	return OrderStatusInProgress, false
}
