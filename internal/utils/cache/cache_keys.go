package cache

import (
	"fmt"
	"strings"
)

type EntityType string

const (
	EntityUser   EntityType = "user"
	EntityWallet EntityType = "wallet"
	EntityBundle EntityType = "bundle"
	EntityOrder  EntityType = "order"
)

type KeyType string

const (
	KeyID   KeyType = "id"
	KeyUser KeyType = "user"
)

// GenerateKey creates a standardized cache key
func GenerateKey(entity EntityType, keyType KeyType, value interface{}) string {
	return fmt.Sprintf("%s:%s:%v", entity, keyType, value)
}

// ParseKey extracts components from a cache key
func ParseKey(key string) map[string]string {
	parts := strings.Split(key, ":")
	if len(parts) < 3 {
		return nil
	}
	return map[string]string{
		"entity": parts[0],
		parts[1]: strings.Join(parts[2:], ":"),
	}
}
