// Package model 定义数据模型
package model

import (
	"gorm.io/gorm"
)

// AutoMigrate 按模型名迁移数据表
func AutoMigrate(db *gorm.DB, key string) error {
	switch key {

	case "Device":
		return db.AutoMigrate(Device{})

	case "Change":
		return db.AutoMigrate(Change{})

	case "Conflict":
		return db.AutoMigrate(Conflict{})

	case "KnowledgeItem":
		return db.AutoMigrate(KnowledgeItem{})

	case "Category":
		return db.AutoMigrate(Category{})

	case "Tag":
		return db.AutoMigrate(Tag{})
	}
	return nil
}

// AutoMigrateAll 迁移全部数据表
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		Device{},
		Change{},
		Conflict{},
		KnowledgeItem{},
		Category{},
		Tag{},
	)
}
