// Copyright © 2024 The ELPS authors

package lsp

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// jsonRPCRequest builds a JSON-RPC 2.0 request.
func jsonRPCRequest(id int, method string, params any) []byte {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	}
	b, _ := json.Marshal(msg)
	return b
}

// jsonRPCNotification builds a JSON-RPC 2.0 notification (no id).
func jsonRPCNotification(method string, params any) []byte {
	msg := map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	}
	b, _ := json.Marshal(msg)
	return b
}

// lspMessage wraps JSON content with the LSP Content-Length header.
func lspMessage(content []byte) []byte {
	return fmt.Appendf(nil, "Content-Length: %d\r\n\r\n%s", len(content), content)
}

// readLSPMessage reads a single LSP message from a buffered reader.
// Returns the parsed JSON as a map.
func readLSPMessage(t *testing.T, r *bufio.Reader) map[string]any {
	t.Helper()

	// Read headers until blank line.
	var contentLength int
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			t.Fatalf("failed to read LSP header: %v", err)
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			break
		}
		if val, ok := strings.CutPrefix(line, "Content-Length: "); ok {
			n, err := strconv.Atoi(val)
			require.NoError(t, err, "parsing Content-Length")
			contentLength = n
		}
	}
	require.Greater(t, contentLength, 0, "Content-Length must be positive")

	// Read content body.
	body := make([]byte, contentLength)
	_, err := io.ReadFull(r, body)
	require.NoError(t, err, "reading message body")

	var msg map[string]any
	require.NoError(t, json.Unmarshal(body, &msg), "parsing JSON body")
	return msg
}

// readResponse reads LSP messages until a response with the given id appears.
// Returns the response and any notifications received along the way.
func readResponse(t *testing.T, r *bufio.Reader, id int) (map[string]any, []map[string]any) {
	t.Helper()
	var notifications []map[string]any
	deadline := time.After(10 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("timeout waiting for response id=%d", id)
		default:
		}
		msg := readLSPMessage(t, r)
		// If this message has the expected id, it's our response.
		if msgID, ok := msg["id"]; ok {
			var msgIDFloat float64
			switch v := msgID.(type) {
			case float64:
				msgIDFloat = v
			case json.Number:
				f, _ := v.Float64()
				msgIDFloat = f
			}
			if int(msgIDFloat) == id {
				return msg, notifications
			}
		}
		// Otherwise it's a notification (no id, or different id).
		notifications = append(notifications, msg)
	}
}

// e2eServer starts an LSP server on a random TCP port and returns the
func e2eServer(t *testing.T) (net.Conn, func()) {
	t.Helper()

	srv := testServer()
	srv.exitFn = func(int) {}

	// Find a free port.
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	_ = listener.Close()

	go func() {
		_ = srv.RunTCP(addr)
	}()

	var conn net.Conn
	for range 50 {
		conn, err = net.Dial("tcp", addr)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.NoError(t, err, "failed to connect to LSP server at %s", addr)

	return conn, func() { _ = conn.Close() }
}

// send writes an LSP message to the connection.
func send(t *testing.T, conn net.Conn, data []byte) {
	t.Helper()
	_, err := conn.Write(lspMessage(data))
	require.NoError(t, err, "writing LSP message")
}

// readDiagnostics reads messages until a publishDiagnostics notification
// arrives.
func readDiagnostics(t *testing.T, r *bufio.Reader) map[string]any {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatal("timeout waiting for diagnostics notification")
		default:
		}
		msg := readLSPMessage(t, r)
		if method, ok := msg["method"].(string); ok && method == "textDocument/publishDiagnostics" {
			return msg["params"].(map[string]any)
		}
	}
}

func TestE2E_FullLifecycle(t *testing.T) {
	conn, cleanup := e2eServer(t)
	defer cleanup()

	reader := bufio.NewReader(conn)

	uri := "file:///tmp/e2e-test/app.py"
	content := `import sys

def add(a, b):
    return a + b

if len(sys.argv) > 1:
    total = add(1, 2)
print(total)
`

	send(t, conn, jsonRPCRequest(1, "initialize", map[string]any{
		"capabilities": map[string]any{},
		"rootUri":      "file:///tmp/e2e-test",
	}))
	resp, _ := readResponse(t, reader, 1)
	result := resp["result"].(map[string]any)
	caps := result["capabilities"].(map[string]any)
	assert.NotNil(t, caps["hoverProvider"])
	assert.NotNil(t, caps["definitionProvider"])
	assert.NotNil(t, caps["referencesProvider"])
	assert.NotNil(t, caps["documentSymbolProvider"])
	assert.Equal(t, "pyrefcheck-lsp", result["serverInfo"].(map[string]any)["name"])

	send(t, conn, jsonRPCNotification("initialized", map[string]any{}))
	send(t, conn, jsonRPCNotification("textDocument/didOpen", map[string]any{
		"textDocument": map[string]any{
			"uri":        uri,
			"languageId": "python",
			"version":    1,
			"text":       content,
		},
	}))

	diag := readDiagnostics(t, reader)
	assert.Equal(t, uri, diag["uri"])
	diags := diag["diagnostics"].([]any)
	require.Len(t, diags, 1)
	first := diags[0].(map[string]any)
	assert.Contains(t, first["message"], "`total`")
	start := first["range"].(map[string]any)["start"].(map[string]any)
	assert.Equal(t, float64(7), start["line"])
	assert.Equal(t, float64(6), start["character"])

	// Hover on the call to add.
	send(t, conn, jsonRPCRequest(2, "textDocument/hover", map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"position":     map[string]any{"line": 6, "character": 13},
	}))
	hoverResp, _ := readResponse(t, reader, 2)
	require.NotNil(t, hoverResp["result"])
	hoverValue := hoverResp["result"].(map[string]any)["contents"].(map[string]any)["value"].(string)
	assert.Contains(t, hoverValue, "**function** `add` (line 3)")

	// Go to definition of add.
	send(t, conn, jsonRPCRequest(3, "textDocument/definition", map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"position":     map[string]any{"line": 6, "character": 13},
	}))
	defResp, _ := readResponse(t, reader, 3)
	require.NotNil(t, defResp["result"])
	defStart := defResp["result"].(map[string]any)["range"].(map[string]any)["start"].(map[string]any)
	assert.Equal(t, float64(2), defStart["line"])
	assert.Equal(t, float64(4), defStart["character"])

	send(t, conn, jsonRPCRequest(4, "textDocument/documentSymbol", map[string]any{
		"textDocument": map[string]any{"uri": uri},
	}))
	symResp, _ := readResponse(t, reader, 4)
	var names []string
	for _, s := range symResp["result"].([]any) {
		names = append(names, s.(map[string]any)["name"].(string))
	}
	assert.Equal(t, []string{"sys", "add"}, names)

	send(t, conn, jsonRPCRequest(5, "textDocument/references", map[string]any{
		"textDocument": map[string]any{"uri": uri},
		"position":     map[string]any{"line": 0, "character": 8},
		"context":      map[string]any{"includeDeclaration": true},
	}))
	refsResp, _ := readResponse(t, reader, 5)
	assert.Len(t, refsResp["result"].([]any), 2)

	// Fix the file and wait for the debounced diagnostics.
	send(t, conn, jsonRPCNotification("textDocument/didChange", map[string]any{
		"textDocument": map[string]any{"uri": uri, "version": 2},
		"contentChanges": []any{
			map[string]any{"text": "total = 0\nprint(total)\n"},
		},
	}))
	diag = readDiagnostics(t, reader)
	assert.Empty(t, diag["diagnostics"])

	send(t, conn, jsonRPCNotification("textDocument/didClose", map[string]any{
		"textDocument": map[string]any{"uri": uri},
	}))
	diag = readDiagnostics(t, reader)
	assert.Empty(t, diag["diagnostics"])

	send(t, conn, jsonRPCRequest(99, "shutdown", nil))
	shutdownResp, _ := readResponse(t, reader, 99)
	assert.Nil(t, shutdownResp["error"])

	send(t, conn, jsonRPCNotification("exit", nil))
}

func TestE2E_SyntaxErrorOnOpen(t *testing.T) {
	conn, cleanup := e2eServer(t)
	defer cleanup()

	reader := bufio.NewReader(conn)
	uri := "file:///tmp/e2e-diag/broken.py"

	send(t, conn, jsonRPCRequest(1, "initialize", map[string]any{
		"capabilities": map[string]any{},
	}))
	readResponse(t, reader, 1)
	send(t, conn, jsonRPCNotification("initialized", map[string]any{}))

	send(t, conn, jsonRPCNotification("textDocument/didOpen", map[string]any{
		"textDocument": map[string]any{
			"uri":        uri,
			"languageId": "python",
			"version":    1,
			"text":       "def broken(:\n",
		},
	}))

	params := readDiagnostics(t, reader)
	diags := params["diagnostics"].([]any)
	require.Len(t, diags, 1)
	d := diags[0].(map[string]any)
	assert.Equal(t, float64(1), d["severity"])
	assert.Equal(t, "pyrefcheck", d["source"])
}
