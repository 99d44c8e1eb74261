package interfaces

// IReferenceGenerator produces merchant references: globally unique,
// human-traceable idempotency keys. A reference is generated and persisted
// before the gateway is contacted and is never reused.

type IReferenceGenerator interface {
	NewReference(prefix string) string
}
