package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/habitlog/internal/config"
	"github.com/habitlog/internal/db"
	"gorm.io/gorm/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("配置读取失败:", err)
	}

	username := flag.String("username", firstNonEmpty(cfg.OwnerUserName, "admin"), "用户名")
	password := flag.String("password", firstNonEmpty(cfg.OwnerPassword, "admin123"), "密码")
	dbPath := flag.String("db", cfg.DatabasePath, "数据库文件路径")
	flag.Parse()

	// 初始化数据库
	gdb, err := db.Open(*dbPath, logger.Warn)
	if err != nil {
		log.Fatal("数据库初始化失败:", err)
	}

	// 检查是否已存在用户
	var count int64
	gdb.Model(&db.User{}).Count(&count)
	if count > 0 {
		fmt.Println("用户已存在，无需初始化")
		return
	}

	if err := db.EnsureUser(gdb, *username, *password); err != nil {
		log.Fatal("创建用户失败:", err)
	}

	fmt.Println("管理员用户创建成功")
	fmt.Println("用户名:", *username)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
