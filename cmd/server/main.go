package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ahmaddaku97-design/Aim/internal/logger"
	"github.com/ahmaddaku97-design/Aim/internal/server"
)

// go run cmd/server/main.go -config=config/config.yaml -id=aim1

func main() {
	var (
		configFile = flag.String("config", "config/config.yaml", "配置文件路径")
		nodeID     = flag.String("id", "aim1", "节点ID")
	)
	flag.Parse()

	if *configFile == "" || *nodeID == "" {
		fmt.Println("使用方法: -config=config/config.yaml -id=aim1")
		os.Exit(1)
	}

	// 身份提供方与对象存储由部署环境接入，默认不启用头像上传
	srv, err := server.NewAppServer(*configFile, *nodeID, nil, nil)
	if err != nil {
		fmt.Printf("Failed to create server: %v\n", err)
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Fatal(fmt.Sprintf("Failed to start server: %v", err))
	}

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if err := srv.Stop(); err != nil {
		logger.Errorf("Failed to stop server: %v", err)
	}
	logger.Sync()
}
