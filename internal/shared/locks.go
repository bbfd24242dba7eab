package shared

import "fmt"

// CodeLockKey builds redis keys serializing code allocation for one entity
// type within a scope and period.
func CodeLockKey(entity, scope, period string) string {
	return fmt.Sprintf("codes:%s:%s:%s:lock", entity, scope, period)
}
