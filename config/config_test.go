package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"a", []string{"a"}},
		{" a , b ,,c ", []string{"a", "b", "c"}},
		{",,", nil},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SplitList(tt.in), "SplitList(%q)", tt.in)
	}
}

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"DATABASE_URL", "HTTP_ADDR", "ACCESS_KEY", "ACCESS_KEY_HASH", "PROTECT_READS", "ALLOW_ORIGINS",
		"LINE_CHANNEL_ACCESS_TOKEN", "LINE_TARGET_IDS", "TELEGRAM_TOKEN", "TELEGRAM_CHAT_IDS",
		"TELEGRAM_CHANNEL", "AMQP_URL", "AMQP_EXCHANGE", "NOTIFY_TIMEOUT", "NOTIFY_INCLUDE_SUMMARY",
		"LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Contains(t, cfg.DB.URL, "happy_sandwich")
	assert.Equal(t, ":8000", cfg.HTTP.Addr)
	assert.Empty(t, cfg.HTTP.AccessKey)
	assert.Empty(t, cfg.HTTP.AccessKeyHash)
	assert.False(t, cfg.HTTP.ProtectReads)
	assert.Len(t, cfg.HTTP.AllowOrigins, 4)
	assert.Equal(t, 5*time.Second, cfg.Notify.Timeout)
	assert.Equal(t, "order_events", cfg.Notify.AMQP.Exchange)
	assert.Empty(t, cfg.Notify.Line.TargetIDs)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "sqlite://orders.db")
	t.Setenv("ACCESS_KEY", "secret")
	t.Setenv("ACCESS_KEY_HASH", "$2a$10$abc")
	t.Setenv("PROTECT_READS", "true")
	t.Setenv("ALLOW_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("LINE_CHANNEL_ACCESS_TOKEN", "line-token")
	t.Setenv("LINE_TARGET_IDS", "U1, U2,")
	t.Setenv("TELEGRAM_CHAT_IDS", "100,-200")
	t.Setenv("NOTIFY_TIMEOUT", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite://orders.db", cfg.DB.URL)
	assert.Equal(t, "secret", cfg.HTTP.AccessKey)
	assert.Equal(t, "$2a$10$abc", cfg.HTTP.AccessKeyHash)
	assert.True(t, cfg.HTTP.ProtectReads)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.HTTP.AllowOrigins)
	assert.Equal(t, "line-token", cfg.Notify.Line.ChannelAccessToken)
	assert.Equal(t, []string{"U1", "U2"}, cfg.Notify.Line.TargetIDs)
	assert.Equal(t, []int64{100, -200}, cfg.Notify.Telegram.ChatIDs)
	assert.Equal(t, 2*time.Second, cfg.Notify.Timeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"PROTECT_READS", "maybe"},
		{"NOTIFY_TIMEOUT", "soon"},
		{"TELEGRAM_CHAT_IDS", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}
