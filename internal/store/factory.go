// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Archive Factory Pattern"
//   Timestamp: "2025-12-08T10:36:00Z"
//   Authoring_Role: "AR"
//   Analysis_Performed: "Implemented Factory pattern for archive backend selection"
//   Principle_Applied: "Aether-Engineering-SOLID-O (Open/Closed Principle)"
//   Quality_Check: "Supports easy addition of new archive backends"
// }}

package store

import (
	"fmt"
	"strings"
)

// StoreType represents the archive backend to use
type StoreType string

const (
	TypeMongoDB StoreType = "mongodb"
	TypeSQLite  StoreType = "sqlite"
	TypeNone    StoreType = "none"
)

// NewStore creates an archive instance based on the provided type and
// connection string. TypeNone returns a nil store: the archive is optional
// and the pipeline runs without one.
func NewStore(storeType StoreType, connectionString string) (Store, error) {
	switch strings.ToLower(string(storeType)) {
	case string(TypeMongoDB):
		return NewMongoDB(connectionString)
	case string(TypeSQLite):
		return NewSQLite(connectionString)
	case string(TypeNone), "":
		return nil, nil
	default:
		return nil, fmt.Errorf("不支持的存储类型: %s", storeType)
	}
}
