package model

// StorageLocation is a node in the self-referential location hierarchy.
// Multiple roots are allowed; the parent chain is expected to be acyclic,
// which the schema does not enforce.
type StorageLocation struct {
	ID          uint              `gorm:"primaryKey" json:"id"`
	Name        string            `gorm:"type:varchar(100);not null" json:"name"`
	Description *string           `gorm:"type:varchar(512)" json:"description,omitempty"`
	ParentID    *uint             `gorm:"index" json:"parent_id,omitempty"`
	Parent      *StorageLocation  `gorm:"foreignKey:ParentID" json:"-"`
	Children    []StorageLocation `gorm:"foreignKey:ParentID" json:"-"`
	Categories  []Category        `gorm:"many2many:storage_category;" json:"categories,omitempty"`
	Images      []StorageImage    `gorm:"foreignKey:StorageLocationID" json:"images,omitempty"`
}

// StorageImage is an uploaded image attached to a storage location
type StorageImage struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	StorageLocationID uint   `gorm:"not null;index" json:"storage_location_id"`
	Filename          string `gorm:"type:varchar(256);not null" json:"filename"`
}
