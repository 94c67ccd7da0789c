package mq

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nsqio/go-nsq"

	"github.com/ahmaddaku97-design/Aim/internal/logger"
)

// NSQConfig NSQ配置
type NSQConfig struct {
	NSQDAddress       string `mapstructure:"nsqd_address"`
	NSQLookupDAddress string `mapstructure:"nsqlookupd_address"`

	// 连接配置
	MaxInFlight    int           `mapstructure:"max_in_flight"`
	DialTimeout    time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MessageTimeout time.Duration `mapstructure:"message_timeout"`
}

// MessageHandler 消息处理器接口
type MessageHandler interface {
	HandleMessage(topic, channel string, data []byte) error
}

// NSQManager NSQ管理器
type NSQManager struct {
	config    *NSQConfig
	producer  *nsq.Producer
	consumers map[string]*nsq.Consumer
	mutex     sync.Mutex
}

// NewNSQManager 创建NSQ管理器
func NewNSQManager(config *NSQConfig) (*NSQManager, error) {
	manager := &NSQManager{
		config:    config,
		consumers: make(map[string]*nsq.Consumer),
	}

	producerConfig := nsq.NewConfig()
	producerConfig.DialTimeout = config.DialTimeout
	producerConfig.ReadTimeout = config.ReadTimeout
	producerConfig.WriteTimeout = config.WriteTimeout

	producer, err := nsq.NewProducer(config.NSQDAddress, producerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create NSQ producer: %v", err)
	}

	// 测试连接
	if err := producer.Ping(); err != nil {
		producer.Stop()
		return nil, fmt.Errorf("failed to ping NSQ: %v", err)
	}

	manager.producer = producer

	logger.Infof("NSQ manager initialized: %s", config.NSQDAddress)
	return manager, nil
}

// Publish 发布消息
func (nm *NSQManager) Publish(topic string, data []byte) error {
	return nm.producer.Publish(topic, data)
}

// PublishJSON 发布JSON消息
func (nm *NSQManager) PublishJSON(topic string, data interface{}) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %v", err)
	}
	return nm.Publish(topic, jsonData)
}

// Subscribe 订阅主题
func (nm *NSQManager) Subscribe(topic, channel string, handler MessageHandler) error {
	nm.mutex.Lock()
	defer nm.mutex.Unlock()

	key := fmt.Sprintf("%s_%s", topic, channel)
	if _, exists := nm.consumers[key]; exists {
		return fmt.Errorf("already subscribed to %s/%s", topic, channel)
	}

	config := nsq.NewConfig()
	config.MaxInFlight = nm.config.MaxInFlight
	config.MsgTimeout = nm.config.MessageTimeout

	consumer, err := nsq.NewConsumer(topic, channel, config)
	if err != nil {
		return fmt.Errorf("failed to create consumer: %v", err)
	}

	consumer.AddHandler(&messageHandlerWrapper{
		handler: handler,
		topic:   topic,
		channel: channel,
	})

	if err := consumer.ConnectToNSQLookupd(nm.config.NSQLookupDAddress); err != nil {
		return fmt.Errorf("failed to connect to NSQLookupd: %v", err)
	}

	nm.consumers[key] = consumer

	logger.Infof("Subscribed to topic: %s, channel: %s", topic, channel)
	return nil
}

// Close 关闭NSQ管理器
func (nm *NSQManager) Close() error {
	nm.mutex.Lock()
	for key, consumer := range nm.consumers {
		consumer.Stop()
		<-consumer.StopChan
		logger.Debugf("Stopped consumer: %s", key)
	}
	nm.mutex.Unlock()

	nm.producer.Stop()

	logger.Info("NSQ manager closed")
	return nil
}

// messageHandlerWrapper NSQ消息处理器包装器
type messageHandlerWrapper struct {
	handler MessageHandler
	topic   string
	channel string
}

// HandleMessage 实现nsq.Handler接口
func (w *messageHandlerWrapper) HandleMessage(message *nsq.Message) error {
	return w.handler.HandleMessage(w.topic, w.channel, message.Body)
}
