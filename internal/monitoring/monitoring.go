package monitoring

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/ahmaddaku97-design/Aim/internal/logger"
)

// MonitoringConfig 监控配置
type MonitoringConfig struct {
	HTTPPort        int           `mapstructure:"http_port"`
	CollectInterval time.Duration `mapstructure:"collect_interval"`
}

// -------------------------- 总管理器 --------------------------

// MonitoringManager 监控模块总管理器，负责初始化、启动、停止监控功能
type MonitoringManager struct {
	registry   *prometheus.Registry
	httpServer *http.Server
	ginEngine  *gin.Engine
	metrics    *MetricsCollector
	config     *MonitoringConfig
	ctx        context.Context
	cancel     context.CancelFunc
	nodeID     string
}

// -------------------------- 指标收集器 --------------------------

// MetricsCollector 指标收集器，封装系统指标和业务指标
type MetricsCollector struct {
	// 系统指标
	cpuUsage    *prometheus.GaugeVec // CPU 使用率（%）
	memoryUsage *prometheus.GaugeVec // 进程内存使用量（字节）
	goroutines  *prometheus.GaugeVec // Goroutine 数量
	heapSize    *prometheus.GaugeVec // Go 堆内存大小（字节）

	// 业务指标
	signupsTotal     *prometheus.CounterVec // 注册总数（按是否带邀请码区分）
	checkinsTotal    *prometheus.CounterVec // 签到总数
	coinsCredited    *prometheus.CounterVec // 入账金币总数（按来源区分）
	coinsDebited     *prometheus.CounterVec // 扣除金币总数
	withdrawalsTotal *prometheus.CounterVec // 提现申请总数（按结果区分）
	messagesSent     *prometheus.CounterVec // 发送消息总数（按频道类型区分）
	activeFeeds      *prometheus.GaugeVec   // 活跃订阅数
}

// NewMetricsCollector 创建指标收集器
func NewMetricsCollector(registry *prometheus.Registry, nodeID string) *MetricsCollector {
	labels := prometheus.Labels{"node_id": nodeID}

	mc := &MetricsCollector{
		cpuUsage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aim_cpu_usage_percent", Help: "CPU usage percent", ConstLabels: labels,
		}, []string{"type"}),
		memoryUsage: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aim_memory_usage_bytes", Help: "Process memory usage in bytes", ConstLabels: labels,
		}, []string{"type"}),
		goroutines: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aim_goroutines", Help: "Number of goroutines", ConstLabels: labels,
		}, []string{}),
		heapSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aim_heap_bytes", Help: "Go heap size in bytes", ConstLabels: labels,
		}, []string{}),

		signupsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aim_signups_total", Help: "Total signups", ConstLabels: labels,
		}, []string{"referred"}),
		checkinsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aim_checkins_total", Help: "Total daily check-ins", ConstLabels: labels,
		}, []string{}),
		coinsCredited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aim_coins_credited_total", Help: "Total coins credited", ConstLabels: labels,
		}, []string{"reason"}),
		coinsDebited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aim_coins_debited_total", Help: "Total coins debited", ConstLabels: labels,
		}, []string{"reason"}),
		withdrawalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aim_withdrawals_total", Help: "Total withdrawal submissions", ConstLabels: labels,
		}, []string{"result"}),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aim_messages_sent_total", Help: "Total chat messages sent", ConstLabels: labels,
		}, []string{"scope"}),
		activeFeeds: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "aim_active_feeds", Help: "Active live feed subscriptions", ConstLabels: labels,
		}, []string{}),
	}

	registry.MustRegister(
		mc.cpuUsage, mc.memoryUsage, mc.goroutines, mc.heapSize,
		mc.signupsTotal, mc.checkinsTotal, mc.coinsCredited, mc.coinsDebited,
		mc.withdrawalsTotal, mc.messagesSent, mc.activeFeeds,
	)

	return mc
}

// IncSignup 记录一次注册
func (mc *MetricsCollector) IncSignup(referred bool) {
	mc.signupsTotal.WithLabelValues(fmt.Sprintf("%t", referred)).Inc()
}

// IncCheckin 记录一次签到
func (mc *MetricsCollector) IncCheckin() {
	mc.checkinsTotal.WithLabelValues().Inc()
}

// AddCoinsCredited 累计入账金币
func (mc *MetricsCollector) AddCoinsCredited(reason string, amount int64) {
	mc.coinsCredited.WithLabelValues(reason).Add(float64(amount))
}

// AddCoinsDebited 累计扣除金币
func (mc *MetricsCollector) AddCoinsDebited(reason string, amount int64) {
	mc.coinsDebited.WithLabelValues(reason).Add(float64(amount))
}

// IncWithdrawal 记录一次提现申请
func (mc *MetricsCollector) IncWithdrawal(result string) {
	mc.withdrawalsTotal.WithLabelValues(result).Inc()
}

// IncMessageSent 记录一条消息发送
func (mc *MetricsCollector) IncMessageSent(scope string) {
	mc.messagesSent.WithLabelValues(scope).Inc()
}

// SetActiveFeeds 更新活跃订阅数
func (mc *MetricsCollector) SetActiveFeeds(n int) {
	mc.activeFeeds.WithLabelValues().Set(float64(n))
}

// collectSystemMetrics 采集系统指标
func (mc *MetricsCollector) collectSystemMetrics() {
	if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
		mc.cpuUsage.WithLabelValues("system").Set(percents[0])
	}

	if vmem, err := mem.VirtualMemory(); err == nil {
		mc.memoryUsage.WithLabelValues("system").Set(float64(vmem.Used))
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if memInfo, err := proc.MemoryInfo(); err == nil {
			mc.memoryUsage.WithLabelValues("process").Set(float64(memInfo.RSS))
		}
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	mc.goroutines.WithLabelValues().Set(float64(runtime.NumGoroutine()))
	mc.heapSize.WithLabelValues().Set(float64(ms.HeapAlloc))
}

// -------------------------- 管理器实现 --------------------------

// NewMonitoringManager 创建监控管理器
func NewMonitoringManager(config *MonitoringConfig, nodeID string) *MonitoringManager {
	ctx, cancel := context.WithCancel(context.Background())

	registry := prometheus.NewRegistry()
	metrics := NewMetricsCollector(registry, nodeID)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	mm := &MonitoringManager{
		registry:  registry,
		ginEngine: engine,
		metrics:   metrics,
		config:    config,
		ctx:       ctx,
		cancel:    cancel,
		nodeID:    nodeID,
	}

	engine.GET("/health", mm.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return mm
}

// Metrics 获取指标收集器
func (mm *MonitoringManager) Metrics() *MetricsCollector {
	return mm.metrics
}

// handleHealth 健康检查接口
func (mm *MonitoringManager) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"node_id": mm.nodeID,
		"time":    time.Now().Unix(),
	})
}

// Start 启动监控HTTP服务和采集循环
func (mm *MonitoringManager) Start() error {
	interval := mm.config.CollectInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				mm.metrics.collectSystemMetrics()
			case <-mm.ctx.Done():
				return
			}
		}
	}()

	mm.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", mm.config.HTTPPort),
		Handler: mm.ginEngine,
	}

	go func() {
		if err := mm.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Errorf("monitoring http server error: %v", err)
		}
	}()

	logger.Infof("Monitoring server started on :%d", mm.config.HTTPPort)
	return nil
}

// Stop 停止监控
func (mm *MonitoringManager) Stop() error {
	mm.cancel()
	if mm.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return mm.httpServer.Shutdown(ctx)
	}
	return nil
}
