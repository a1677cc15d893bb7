package config

import (
	stdErrors "errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config 描述了 Web3-MCP 在启动阶段需要加载的全部配置。
type Config struct {
	Web3    Web3Config
	Server  ServerConfig
	Events  EventsConfig
	Logging LoggingConfig
}

// Web3Config 包含访问区块链节点与签名身份所需的参数。
type Web3Config struct {
	RPCURL              string        `validate:"required,url"`
	PrivateKey          string        `validate:"required"`
	Network             string        `default:"sepolia" validate:"required"`
	NetworksFile        string        `validate:"omitempty,file"`
	ConfirmationTimeout time.Duration `default:"300s" validate:"gt=0"`
	ReceiptPollInterval time.Duration `default:"1s" validate:"gt=0"`
	PriceStaleness      time.Duration `default:"1h" validate:"gt=0"`
}

// ServerConfig 控制 MCP 传输方式与监听地址。
type ServerConfig struct {
	Transport string `default:"http" validate:"oneof=http stdio"`
	Host      string `default:"localhost"`
	Port      int    `default:"3000" validate:"min=1,max=65535"`
	Endpoint  string `default:"/mcp" validate:"startswith=/"`
	AuthToken string
}

// EventsConfig 选择交易生命周期事件的投递后端。
type EventsConfig struct {
	Driver         string `default:"log" validate:"oneof=log memory redis rabbitmq"`
	RedisAddr      string `validate:"required_if=Driver redis"`
	RedisPassword  string
	RedisDB        int    `validate:"min=0"`
	RedisKey       string `default:"web3mcp:tx-events"`
	RabbitMQURL    string `validate:"required_if=Driver rabbitmq"`
	RabbitMQQueue  string `default:"web3mcp.tx-events"`
	MemoryCapacity int    `default:"256" validate:"min=1"`
}

// LoggingConfig 对应 pkg/logger 的配置项。
type LoggingConfig struct {
	Level      string `default:"info" validate:"oneof=debug info warn warning error"`
	Format     string `default:"json" validate:"oneof=json text"`
	Outputs    []string
	AuditPath  string
	MaxSizeMB  int `default:"100"`
	MaxBackups int `default:"7"`
	MaxAgeDays int `default:"30"`
}

// Address 返回 HTTP 传输的监听地址。
func (s ServerConfig) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

var validate = validator.New()

// Load 读取可选的 dotenv 文件后从环境变量构建配置。
// envFile 为空时尝试当前目录下的 .env，文件不存在不视为错误。
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !stdErrors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("读取 dotenv 文件失败: %w", err)
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv 使用给定的查找函数解析配置，便于测试注入。
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	r := envReader{lookup: lookup}

	var cfg Config
	cfg.Web3.RPCURL = r.str("WEB3_PROVIDER_URL")
	cfg.Web3.PrivateKey = r.str("AGENT_PRIVATE_KEY")
	cfg.Web3.Network = strings.ToLower(r.str("NETWORK"))
	cfg.Web3.NetworksFile = r.str("NETWORKS_FILE")
	cfg.Web3.ConfirmationTimeout = r.duration("CONFIRMATION_TIMEOUT")
	cfg.Web3.ReceiptPollInterval = r.duration("RECEIPT_POLL_INTERVAL")
	cfg.Web3.PriceStaleness = r.duration("PRICE_STALENESS")

	cfg.Server.Transport = strings.ToLower(r.str("MCP_TRANSPORT"))
	cfg.Server.Host = r.str("MCP_HOST")
	cfg.Server.Port = r.integer("MCP_PORT")
	cfg.Server.Endpoint = r.str("MCP_ENDPOINT")
	cfg.Server.AuthToken = r.str("MCP_AUTH_TOKEN")

	cfg.Events.Driver = strings.ToLower(r.str("EVENTS_DRIVER"))
	cfg.Events.RedisAddr = r.str("REDIS_ADDR")
	cfg.Events.RedisPassword = r.str("REDIS_PASSWORD")
	cfg.Events.RedisDB = r.integer("REDIS_DB")
	cfg.Events.RedisKey = r.str("REDIS_KEY")
	cfg.Events.RabbitMQURL = r.str("RABBITMQ_URL")
	cfg.Events.RabbitMQQueue = r.str("RABBITMQ_QUEUE")

	cfg.Logging.Level = strings.ToLower(r.str("LOG_LEVEL"))
	cfg.Logging.Format = strings.ToLower(r.str("LOG_FORMAT"))
	cfg.Logging.Outputs = r.list("LOG_OUTPUT")
	cfg.Logging.AuditPath = r.str("AUDIT_LOG_PATH")

	if len(r.errs) > 0 {
		return nil, stdErrors.Join(r.errs...)
	}

	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("设置默认配置失败: %w", err)
	}
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("配置校验失败: %w", describe(err))
	}
	return &cfg, nil
}

// envNames 把结构体字段映射回环境变量名，让校验错误可读。
var envNames = map[string]string{
	"Config.Web3.RPCURL":              "WEB3_PROVIDER_URL",
	"Config.Web3.PrivateKey":          "AGENT_PRIVATE_KEY",
	"Config.Web3.Network":             "NETWORK",
	"Config.Web3.NetworksFile":        "NETWORKS_FILE",
	"Config.Web3.ConfirmationTimeout": "CONFIRMATION_TIMEOUT",
	"Config.Web3.ReceiptPollInterval": "RECEIPT_POLL_INTERVAL",
	"Config.Web3.PriceStaleness":      "PRICE_STALENESS",
	"Config.Server.Transport":         "MCP_TRANSPORT",
	"Config.Server.Port":              "MCP_PORT",
	"Config.Server.Endpoint":          "MCP_ENDPOINT",
	"Config.Events.Driver":            "EVENTS_DRIVER",
	"Config.Events.RedisAddr":         "REDIS_ADDR",
	"Config.Events.RedisDB":           "REDIS_DB",
	"Config.Events.RabbitMQURL":       "RABBITMQ_URL",
	"Config.Logging.Level":            "LOG_LEVEL",
	"Config.Logging.Format":           "LOG_FORMAT",
}

func describe(err error) error {
	var verrs validator.ValidationErrors
	if !stdErrors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name, ok := envNames[fe.Namespace()]
		if !ok {
			name = fe.Namespace()
		}
		// 私钥的取值不能出现在错误信息里。
		msgs = append(msgs, fmt.Sprintf("%s 不满足规则 %s", name, fe.Tag()))
	}
	return stdErrors.New(strings.Join(msgs, "; "))
}

type envReader struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (r *envReader) str(key string) string {
	if r.lookup == nil {
		return ""
	}
	v, _ := r.lookup(key)
	return strings.TrimSpace(v)
}

func (r *envReader) integer(key string) int {
	raw := r.str(key)
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s 不是合法整数: %q", key, raw))
		return 0
	}
	return n
}

func (r *envReader) duration(key string) time.Duration {
	raw := r.str(key)
	if raw == "" {
		return 0
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		r.errs = append(r.errs, fmt.Errorf("%s 不是合法时长: %q", key, raw))
		return 0
	}
	return d
}

func (r *envReader) list(key string) []string {
	raw := r.str(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
