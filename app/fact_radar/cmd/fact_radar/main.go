package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/config"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/engine"
	"github.com/iWorld-y/fact_radar/app/fact_radar/pkg/logger"
)

var (
	confPath = flag.String("conf", "app/fact_radar/configs/config.yaml", "config path, eg: -conf config.yaml")
	text     = flag.String("text", "", "text to analyse, use - to read stdin")
	url      = flag.String("url", "", "article url to analyse")
	title    = flag.String("title", "", "optional article title")
	id       = flag.String("id", "", "optional analysis id")
)

func main() {
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadConfig(*confPath)
	if err != nil {
		log.Fatalf("无法加载配置文件: %v", err)
	}

	// 2. 初始化日志
	if err = logger.InitLogger(cfg.Log.Level, cfg.Log.File); err != nil {
		log.Fatalf("无法初始化日志: %v", err)
	}
	logger.Log.Info("启动事实雷达...")

	input := *text
	if input == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			log.Fatalf("读取标准输入失败: %v", err)
		}
		input = string(b)
	}
	if strings.TrimSpace(input) == "" && *url == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// 3. 组装引擎
	rt, err := engine.Build(ctx, cfg)
	if err != nil {
		logger.Log.Fatalf("引擎初始化失败: %v", err)
	}
	defer rt.Close()

	// 4. 执行分析
	res, err := rt.Engine.Analyze(ctx, engine.Request{
		ID:    *id,
		Text:  input,
		URL:   *url,
		Title: *title,
		ProgressCallback: func(status string, progress int) {
			logger.Log.Debugf("进度 %3d%% %s", progress, status)
		},
	})
	if err != nil {
		logger.Log.Errorf("分析失败: %v", err)
		rt.Close()
		os.Exit(1)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		logger.Log.Errorf("输出结果失败: %v", err)
	}
}
