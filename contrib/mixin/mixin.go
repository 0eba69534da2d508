// Package mixin provides common attribute sets for managed types.
//
// Available mixins:
//   - CreateTime: adds the createdAt timestamp
//   - UpdateTime: adds the updatedAt timestamp
//   - Time: combines CreateTime and UpdateTime
//   - ID: adds a UUID identifier
//   - SoftDelete: adds the optional deletedAt timestamp
//   - TenantID: adds the tenantId of multi-tenant models
//   - TimeSoftDelete: combines Time and SoftDelete
//
// Usage:
//
//	b := metamodel.NewBuilder()
//	b.Entity("Order").
//		Mixin(mixin.ID{}, mixin.Time{}).
//		Attributes(
//			metamodel.Basic("total", "decimal"),
//		)
//
// Custom mixins implement metamodel.Mixin:
//
//	type Audit struct{}
//
//	func (Audit) Attributes() []metamodel.AttributeDescriptor {
//		return []metamodel.AttributeDescriptor{
//			metamodel.Basic("createdBy", "string"),
//			metamodel.Basic("updatedBy", "string").Optional(),
//		}
//	}
package mixin

import (
	"github.com/syssam/entitygraph/metamodel"
	"github.com/syssam/entitygraph/schema"
)

// CreateTime adds the createdAt attribute, mapped to created_at.
type CreateTime struct{}

// Attributes of the create time mixin.
func (CreateTime) Attributes() []metamodel.AttributeDescriptor {
	return []metamodel.AttributeDescriptor{
		metamodel.Basic("createdAt", "time").
			Comment("Time the entity was created."),
	}
}

var _ metamodel.Mixin = (*CreateTime)(nil)

// UpdateTime adds the updatedAt attribute, mapped to updated_at.
type UpdateTime struct{}

// Attributes of the update time mixin.
func (UpdateTime) Attributes() []metamodel.AttributeDescriptor {
	return []metamodel.AttributeDescriptor{
		metamodel.Basic("updatedAt", "time").
			Comment("Time the entity was last updated."),
	}
}

var _ metamodel.Mixin = (*UpdateTime)(nil)

// Time composes CreateTime and UpdateTime.
type Time struct{}

// Attributes of the time mixin.
func (Time) Attributes() []metamodel.AttributeDescriptor {
	return append(
		CreateTime{}.Attributes(),
		UpdateTime{}.Attributes()...,
	)
}

var _ metamodel.Mixin = (*Time)(nil)

// ID adds a UUID identifier named id.
//
// For other identifier types, declare the identifier directly:
//
//	metamodel.ID("id", "int64")
type ID struct{}

// Attributes of the ID mixin.
func (ID) Attributes() []metamodel.AttributeDescriptor {
	return []metamodel.AttributeDescriptor{
		metamodel.ID("id", "uuid"),
	}
}

var _ metamodel.Mixin = (*ID)(nil)

// SoftDelete adds the optional deletedAt attribute, set when the entity is
// marked as deleted instead of removed.
type SoftDelete struct{}

// Attributes of the soft delete mixin.
func (SoftDelete) Attributes() []metamodel.AttributeDescriptor {
	return []metamodel.AttributeDescriptor{
		metamodel.Basic("deletedAt", "time").
			Optional().
			Comment("Time the entity was deleted, if it was."),
	}
}

var _ metamodel.Mixin = (*SoftDelete)(nil)

// TenantID adds the tenantId attribute of multi-tenant models. The
// attribute is sensitive, so graphs planned with privacy.DenySensitiveRule
// never expose it.
type TenantID struct{}

// Attributes of the tenant id mixin.
func (TenantID) Attributes() []metamodel.AttributeDescriptor {
	return []metamodel.AttributeDescriptor{
		metamodel.Basic("tenantId", "string").
			Sensitive().
			Lazy().
			Annotations(schema.Comment("Owning tenant.")),
	}
}

var _ metamodel.Mixin = (*TenantID)(nil)

// TimeSoftDelete composes Time and SoftDelete.
type TimeSoftDelete struct{}

// Attributes of the time soft delete mixin.
func (TimeSoftDelete) Attributes() []metamodel.AttributeDescriptor {
	return append(
		Time{}.Attributes(),
		SoftDelete{}.Attributes()...,
	)
}

var _ metamodel.Mixin = (*TimeSoftDelete)(nil)
