package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config 全局配置结构体
type Config struct {
	Lock     LockConfig     `mapstructure:"lock"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Hardware HardwareConfig `mapstructure:"hardware"`
	Database DatabaseConfig `mapstructure:"database"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Diag     DiagConfig     `mapstructure:"diag"`
	Log      LogConfig      `mapstructure:"log"`
}

// LockConfig 锁控核心配置
type LockConfig struct {
	TickInterval   time.Duration `mapstructure:"tick_interval"`   // 控制循环周期
	NoticeDuration time.Duration `mapstructure:"notice_duration"` // 提示信息阻塞显示时长
	HashAlgorithm  string        `mapstructure:"hash_algorithm"`  // blake2b / sha3 / argon2id
	HashSalt       string        `mapstructure:"hash_salt"`       // argon2id 固定盐（非密钥）
	DisplayRows    int           `mapstructure:"display_rows"`
	DisplayCols    int           `mapstructure:"display_cols"`
}

// StorageConfig 持久化介质配置
type StorageConfig struct {
	Backend string `mapstructure:"backend"` // file / database / memory
	Path    string `mapstructure:"path"`    // file 后端的镜像文件
	Size    int    `mapstructure:"size"`    // 介质总字节数
	Address int    `mapstructure:"address"` // 记录的固定偏移
}

// HardwareConfig 硬件配置
type HardwareConfig struct {
	Mode        string       `mapstructure:"mode"` // console / serial / mock
	ResetActive bool         `mapstructure:"reset_active"`
	Serial      SerialConfig `mapstructure:"serial"`
}

// SerialConfig 串口配置（面板MCU）
type SerialConfig struct {
	Port              string        `mapstructure:"port"`
	BaudRate          int           `mapstructure:"baud_rate"`
	DataBits          int           `mapstructure:"data_bits"`
	StopBits          int           `mapstructure:"stop_bits"`
	Parity            string        `mapstructure:"parity"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// AuditConfig 审计日志配置
type AuditConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DiagConfig 诊断接口配置
type DiagConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	JWTSecret       string        `mapstructure:"jwt_secret"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level   string            `mapstructure:"level"`
	Format  string            `mapstructure:"format"`
	Output  string            `mapstructure:"output"`
	File    LogFileConfig     `mapstructure:"file"`
	Modules map[string]string `mapstructure:"modules"`
}

// LogFileConfig 日志文件配置
type LogFileConfig struct {
	Path       string `mapstructure:"path"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

var (
	cfg  *Config
	once sync.Once
	mu   sync.RWMutex
	v    *viper.Viper
)

// Init 初始化配置
func Init(configPath string) error {
	var err error
	once.Do(func() {
		var loaded *Config
		v, loaded, err = load(configPath)
		if err != nil {
			return
		}
		mu.Lock()
		cfg = loaded
		mu.Unlock()
	})
	return err
}

// Load 读取配置文件但不设置全局实例（用于测试和工具命令）
func Load(configPath string) (*Config, error) {
	_, c, err := load(configPath)
	return c, err
}

func load(configPath string) (*viper.Viper, *Config, error) {
	vp := viper.New()

	if configPath != "" {
		vp.SetConfigFile(configPath)
	} else {
		vp.SetConfigName("config")
		vp.SetConfigType("yaml")
		vp.AddConfigPath("./config")
		vp.AddConfigPath(".")
	}

	vp.SetEnvPrefix("PIN_LOCK")
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	setDefaults(vp)

	if err := vp.ReadInConfig(); err != nil {
		// 配置文件不存在时使用默认配置
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	c := &Config{}
	if err := vp.Unmarshal(c); err != nil {
		return nil, nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, nil, err
	}

	return vp, c, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 锁控默认配置
	v.SetDefault("lock.tick_interval", "20ms")
	v.SetDefault("lock.notice_duration", "1500ms")
	v.SetDefault("lock.hash_algorithm", "blake2b")
	v.SetDefault("lock.hash_salt", "pin-lock")
	v.SetDefault("lock.display_rows", 4)
	v.SetDefault("lock.display_cols", 20)

	// 存储默认配置
	v.SetDefault("storage.backend", "file")
	v.SetDefault("storage.path", "./data/lock.eeprom")
	v.SetDefault("storage.size", 1024)
	v.SetDefault("storage.address", 0)

	// 硬件默认配置
	v.SetDefault("hardware.mode", "console")
	v.SetDefault("hardware.reset_active", true)
	v.SetDefault("hardware.serial.port", "/dev/ttyUSB0")
	v.SetDefault("hardware.serial.baud_rate", 115200)
	v.SetDefault("hardware.serial.data_bits", 8)
	v.SetDefault("hardware.serial.stop_bits", 1)
	v.SetDefault("hardware.serial.parity", "N")
	v.SetDefault("hardware.serial.read_timeout", "100ms")
	v.SetDefault("hardware.serial.heartbeat_interval", "5s")

	// 数据库默认配置
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/pin-lock.db")
	v.SetDefault("database.max_idle_conns", 2)
	v.SetDefault("database.max_open_conns", 4)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("audit.enabled", true)

	// 诊断接口默认配置
	v.SetDefault("diag.enabled", false)
	v.SetDefault("diag.host", "127.0.0.1")
	v.SetDefault("diag.port", 8090)
	v.SetDefault("diag.mode", "release")
	v.SetDefault("diag.jwt_secret", "")
	v.SetDefault("diag.shutdown_timeout", "5s")

	// 日志默认配置
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "file")
	v.SetDefault("log.file.path", "./logs")
	v.SetDefault("log.file.filename", "pin-lock.log")
	v.SetDefault("log.file.max_size", 10)
	v.SetDefault("log.file.max_age", 30)
	v.SetDefault("log.file.max_backups", 5)
	v.SetDefault("log.file.compress", true)
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.Lock.TickInterval <= 0 {
		return fmt.Errorf("lock.tick_interval 必须大于0")
	}
	if c.Lock.DisplayRows < 2 || c.Lock.DisplayCols < 8 {
		return fmt.Errorf("显示屏至少需要2行8列: %dx%d", c.Lock.DisplayRows, c.Lock.DisplayCols)
	}
	switch c.Lock.HashAlgorithm {
	case "blake2b", "sha3", "argon2id":
	default:
		return fmt.Errorf("不支持的摘要算法: %s", c.Lock.HashAlgorithm)
	}

	switch c.Storage.Backend {
	case "file", "database", "memory":
	default:
		return fmt.Errorf("不支持的存储后端: %s", c.Storage.Backend)
	}
	if c.Storage.Address < 0 {
		return fmt.Errorf("storage.address 不能为负数")
	}
	if c.Storage.Backend == "file" && c.Storage.Path == "" {
		return fmt.Errorf("storage.path 不能为空")
	}

	switch c.Hardware.Mode {
	case "console", "serial", "mock":
	default:
		return fmt.Errorf("不支持的硬件模式: %s", c.Hardware.Mode)
	}

	return nil
}

// Get 获取配置实例
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return cfg
}

// Watch 监听配置文件变化
func Watch(callback func(*Config)) {
	if v == nil {
		return
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		newCfg := &Config{}
		if err := v.Unmarshal(newCfg); err != nil {
			fmt.Printf("配置重载失败: %v\n", err)
			return
		}
		if err := newCfg.Validate(); err != nil {
			fmt.Printf("配置重载校验失败: %v\n", err)
			return
		}

		mu.Lock()
		cfg = newCfg
		mu.Unlock()

		if callback != nil {
			callback(newCfg)
		}
	})
	v.WatchConfig()
}

// ConfigFile 返回实际使用的配置文件路径
func ConfigFile() string {
	if v == nil {
		return ""
	}
	return v.ConfigFileUsed()
}
