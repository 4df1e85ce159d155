package config

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"sacco-backend/internal/domain/policy"
)

type Config struct {
	AppPort string

	DBDriver string
	DBHost   string
	DBPort   string
	DBName   string
	DBUser   string
	DBPass   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaTopic   string

	// Mobile-money gateway. Empty URL disables STK push.
	GatewayURL     string
	GatewayKey     string
	GatewayTimeout time.Duration
	// Shared secret the gateway sends on callbacks. Empty accepts any caller.
	CallbackToken string

	SweepInterval time.Duration

	IdempTTLSecs int

	Policy policy.Policy
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("config: ignoring %s=%q, not an integer", k, v)
	}
	return d
}

func getdec(k string, d decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(k); v != "" {
		if n, err := decimal.NewFromString(v); err == nil {
			return n
		}
		log.Printf("config: ignoring %s=%q, not a number", k, v)
	}
	return d
}

func getbool(k string, d bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("config: ignoring %s=%q, not a bool", k, v)
	}
	return d
}

// Load reads an optional .env first; real environment variables win.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("config: .env not loaded: %v", err)
	}

	driver := strings.ToLower(getenv("DB_DRIVER", "mysql"))
	defPort := "3306"
	if driver == "postgres" {
		defPort = "5432"
	}

	c := &Config{
		AppPort:  getenv("APP_PORT", "8080"),
		DBDriver: driver,
		DBHost:   getenv("DB_HOST", "mysql"),
		DBPort:   getenv("DB_PORT", defPort),
		DBName:   getenv("DB_NAME", "sacco"),
		DBUser:   getenv("DB_USER", "sacco"),
		DBPass:   getenv("DB_PASS", "sacco"),

		RedisAddr:     getenv("REDIS_ADDR", "redis:6379"),
		RedisPassword: getenv("REDIS_PASSWORD", ""),
		RedisDB:       getint("REDIS_DB", 0),

		KafkaTopic:   getenv("KAFKA_TOPIC", "sacco.notifications"),
		IdempTTLSecs: getint("IDEMPOTENCY_TTL_SECONDS", 300),

		GatewayURL:     strings.TrimRight(getenv("GATEWAY_URL", ""), "/"),
		GatewayKey:     getenv("GATEWAY_KEY", ""),
		GatewayTimeout: time.Duration(getint("GATEWAY_TIMEOUT_SECONDS", 10)) * time.Second,
		CallbackToken:  getenv("GATEWAY_CALLBACK_TOKEN", ""),

		SweepInterval: time.Duration(getint("SWEEP_INTERVAL_MINUTES", 15)) * time.Minute,
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.KafkaBrokers = append(c.KafkaBrokers, b)
			}
		}
	}

	p := policy.Default()
	p.WorkflowThreshold = getdec("WORKFLOW_THRESHOLD", p.WorkflowThreshold)
	p.GuarantorFreeLimit = getdec("GUARANTOR_FREE_LIMIT", p.GuarantorFreeLimit)
	p.GuarantorStep = getdec("GUARANTOR_STEP", p.GuarantorStep)
	p.SharePrice = getdec("SHARE_PRICE", p.SharePrice)
	p.LoanMultiplier = int64(getint("LOAN_MULTIPLIER", int(p.LoanMultiplier)))
	p.DefaultInterestRate = getdec("DEFAULT_INTEREST_RATE", p.DefaultInterestRate)
	p.RequiredApprovals = getint("REQUIRED_APPROVALS", p.RequiredApprovals)
	p.MinSavings = getdec("MIN_SAVINGS", p.MinSavings)
	p.MemberApprovalWorkflow = getbool("MEMBER_APPROVAL_WORKFLOW", p.MemberApprovalWorkflow)
	p.ActionTTL = time.Duration(getint("ACTION_TTL_HOURS", int(p.ActionTTL/time.Hour))) * time.Hour
	c.Policy = p

	return c
}

func (c *Config) Validate() error {
	if c.DBDriver != "mysql" && c.DBDriver != "postgres" {
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.DBHost == "" || c.DBPort == "" || c.DBName == "" || c.DBUser == "" {
		return errors.New("missing DB config (DB_HOST/PORT/NAME/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.DBPort); err != nil {
		return fmt.Errorf("invalid DB_PORT %q: %w", c.DBPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if c.Policy.RequiredApprovals < 1 {
		return errors.New("REQUIRED_APPROVALS must be at least 1")
	}
	if !c.Policy.SharePrice.IsPositive() || !c.Policy.GuarantorStep.IsPositive() {
		return errors.New("SHARE_PRICE and GUARANTOR_STEP must be positive")
	}
	if c.Policy.WorkflowThreshold.IsNegative() || c.Policy.MinSavings.IsNegative() {
		return errors.New("WORKFLOW_THRESHOLD and MIN_SAVINGS cannot be negative")
	}
	return nil
}

func (c *Config) dbAddr() string { return net.JoinHostPort(c.DBHost, c.DBPort) }

// DSN renders the connection string for the configured driver.
func (c *Config) DSN() string {
	if c.DBDriver == "postgres" {
		return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
			c.DBHost, c.DBUser, c.DBPass, c.DBName, c.DBPort)
	}
	// parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4,utf8",
		c.DBUser, c.DBPass, c.dbAddr(), c.DBName)
}
