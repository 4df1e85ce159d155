package config

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("WORKFLOW_THRESHOLD", "")
	c := Load()

	if c.DBDriver != "mysql" || c.DBPort != "3306" {
		t.Fatalf("driver/port = %s/%s", c.DBDriver, c.DBPort)
	}
	if !c.Policy.WorkflowThreshold.Equal(decimal.NewFromInt(50_000)) {
		t.Fatalf("threshold = %s", c.Policy.WorkflowThreshold)
	}
	if c.Policy.RequiredApprovals != 2 {
		t.Fatalf("required approvals = %d", c.Policy.RequiredApprovals)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("WORKFLOW_THRESHOLD", "75000")
	t.Setenv("REQUIRED_APPROVALS", "3")
	t.Setenv("MEMBER_APPROVAL_WORKFLOW", "false")
	t.Setenv("ACTION_TTL_HOURS", "24")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")

	c := Load()
	if c.DBPort != "5432" {
		t.Fatalf("postgres default port = %s", c.DBPort)
	}
	if !c.Policy.WorkflowThreshold.Equal(decimal.NewFromInt(75_000)) {
		t.Fatalf("threshold = %s", c.Policy.WorkflowThreshold)
	}
	if c.Policy.RequiredApprovals != 3 || c.Policy.MemberApprovalWorkflow {
		t.Fatalf("policy = %+v", c.Policy)
	}
	if c.Policy.ActionTTL != 24*time.Hour {
		t.Fatalf("ttl = %s", c.Policy.ActionTTL)
	}
	if len(c.KafkaBrokers) != 2 || c.KafkaBrokers[1] != "k2:9092" {
		t.Fatalf("brokers = %v", c.KafkaBrokers)
	}
	if !strings.HasPrefix(c.DSN(), "host=") {
		t.Fatalf("postgres dsn = %s", c.DSN())
	}
}

func TestLoad_BadNumberKeepsDefault(t *testing.T) {
	t.Setenv("SHARE_PRICE", "abc")
	c := Load()
	if !c.Policy.SharePrice.Equal(decimal.NewFromInt(500)) {
		t.Fatalf("share price = %s", c.Policy.SharePrice)
	}
}

func TestValidate(t *testing.T) {
	c := Load()
	c.DBDriver = "sqlite"
	if err := c.Validate(); err == nil {
		t.Fatal("expected driver error")
	}

	c = Load()
	c.DBPort = "not-a-port-xyz"
	if err := c.Validate(); err == nil {
		t.Fatal("expected port error")
	}

	c = Load()
	c.Policy.RequiredApprovals = 0
	if err := c.Validate(); err == nil {
		t.Fatal("expected approvals error")
	}
}

func TestDSN_MySQL(t *testing.T) {
	c := &Config{DBDriver: "mysql", DBHost: "h", DBPort: "3306", DBName: "d", DBUser: "u", DBPass: "p"}
	if got, want := c.DSN(), "u:p@tcp(h:3306)/d?"; !strings.HasPrefix(got, want) {
		t.Fatalf("dsn = %s", got)
	}
}
