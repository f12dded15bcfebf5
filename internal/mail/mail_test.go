package mail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAddressList(t *testing.T) {
	addrs := ParseAddressList("admin@webempresa.com, Ventas <ventas@webempresa.com>, not-an-email, ")
	require.Len(t, addrs, 2)
	assert.Equal(t, "admin@webempresa.com", addrs[0].Address)
	assert.Equal(t, "Ventas", addrs[1].Name)
}

func TestConsole_SkipsUndeliverable(t *testing.T) {
	c := NewConsoleMock()
	c.SendMessages(
		Message{Subject: "no recipients", TextContent: "hola"},
		Message{To: ParseAddressList("a@b.co"), Subject: "empty"},
		Message{To: ParseAddressList("a@b.co"), Subject: "ok", TextContent: "hola"},
	)

	sent := c.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "ok", sent[0].Subject)
}

func TestNew_PicksImplementation(t *testing.T) {
	_, isConsole := New("", "Web Empresa", "noreply@webempresa.com").(*Console)
	assert.True(t, isConsole)

	sg, isSendgrid := New("SG.key", "Web Empresa", "noreply@webempresa.com").(*Sendgrid)
	require.True(t, isSendgrid)
	assert.Equal(t, "[Web Empresa] ", sg.subjPrefix)
}
