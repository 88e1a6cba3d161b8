package model

import (
	"time"
)

// Item is a tracked object. Owner and storage location are both optional;
// categories are shared with storage locations.
type Item struct {
	ID                uint             `gorm:"primaryKey" json:"id"`
	Name              string           `gorm:"type:varchar(100);not null" json:"name"`
	Description       *string          `gorm:"type:varchar(512)" json:"description,omitempty"`
	Barcode           *string          `gorm:"type:varchar(100);uniqueIndex" json:"barcode,omitempty"`
	OwnerID           *uint            `gorm:"index" json:"owner_id,omitempty"`
	Owner             *User            `gorm:"foreignKey:OwnerID" json:"-"`
	StorageLocationID *uint            `gorm:"index" json:"storage_location_id,omitempty"`
	StorageLocation   *StorageLocation `gorm:"foreignKey:StorageLocationID" json:"-"`
	Categories        []Category       `gorm:"many2many:item_category;" json:"categories,omitempty"`
	Images            []ItemImage      `gorm:"foreignKey:ItemID" json:"images,omitempty"`
}

// ItemImage is an uploaded image attached to an item
type ItemImage struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	ItemID   uint   `gorm:"not null;index" json:"item_id"`
	Filename string `gorm:"type:varchar(256);not null" json:"filename"`
}

// ItemStorageStock is one row of the append-only stock ledger. The current
// stock of an item is the quantity of its most recent row; rows are never
// updated in place.
type ItemStorageStock struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	ItemID            uint      `gorm:"not null;index" json:"item_id"`
	StorageLocationID *uint     `gorm:"index" json:"storage_location_id,omitempty"`
	Quantity          int       `gorm:"not null" json:"quantity"`
	Timestamp         time.Time `gorm:"not null;index" json:"timestamp"`
}
