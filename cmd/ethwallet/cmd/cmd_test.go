package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testMnemonic = "abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon abandon about"
	testKeyHex   = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	testTxHash   = "0x88df016429689c079f3b2f6ad39fa052532c56795b733da78a91ebe6a713944b"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--env-file", "", "--log-level", "disabled"}, args...))
	err := root.Execute()
	return out.String(), err
}

// fakeNode answers JSON-RPC calls from a fixed method -> result table.
func fakeNode(t *testing.T, results map[string]any) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		resp := map[string]any{"jsonrpc": "2.0", "id": req.ID}
		if res, ok := results[req.Method]; ok {
			resp["result"] = res
		} else {
			resp["error"] = map[string]any{"code": -32601, "message": "method not found"}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestMnemonicCommands(t *testing.T) {
	out, err := run(t, testMnemonic+"\n", "mnemonic", "validate")
	require.NoError(t, err)
	assert.Equal(t, "valid\n", out)

	_, err = run(t, "abandon abandon abandon\n", "mnemonic", "validate")
	assert.Error(t, err)

	out, err = run(t, "", "mnemonic", "new", "--words", "24")
	require.NoError(t, err)
	assert.Len(t, strings.Fields(out), 24)

	_, err = run(t, out, "mnemonic", "validate")
	assert.NoError(t, err)

	_, err = run(t, "", "mnemonic", "new", "--words", "15")
	assert.Error(t, err)
}

func TestDeriveCommand(t *testing.T) {
	out, err := run(t, testMnemonic+"\n", "derive", "--count", "2")
	require.NoError(t, err)

	var addrs []struct {
		Address        string `json:"address"`
		DerivationPath string `json:"derivation_path"`
		Index          uint32 `json:"index"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &addrs))
	require.Len(t, addrs, 2)
	assert.Equal(t, "0x9858EfFD232B4033E47d90003D41EC34EcaEda94", addrs[0].Address)
	assert.Equal(t, "m/44'/60'/0'/0/0", addrs[0].DerivationPath)
	assert.Equal(t, "m/44'/60'/0'/0/1", addrs[1].DerivationPath)
	assert.Equal(t, uint32(1), addrs[1].Index)
	assert.NotEqual(t, addrs[0].Address, addrs[1].Address)
}

func TestAddressCommand(t *testing.T) {
	out, err := run(t, "0x"+strings.Repeat("0", 63)+"1\n", "address")
	require.NoError(t, err)
	assert.Contains(t, out, "0x7E5F4552091A69125d5DfCb7b8C2659029395Bdf")

	_, err = run(t, "0x1234\n", "address")
	assert.Error(t, err)

	_, err = run(t, "", "address")
	assert.Error(t, err)
}

func TestSignCommand_EIP155Vector(t *testing.T) {
	out, err := run(t, strings.Repeat("46", 32)+"\n", "sign",
		"--chain-id", "1",
		"--nonce", "9",
		"--gas-price", "20",
		"--gas-limit", "21000",
		"--to", "0x3535353535353535353535353535353535353535",
		"--value", "1",
	)
	require.NoError(t, err)

	var signed signedOutput
	require.NoError(t, json.Unmarshal([]byte(out), &signed))
	assert.Equal(t, "legacy", signed.Type)
	assert.Equal(t,
		"0xf86c098504a817c800825208943535353535353535353535353535353535353535880de0b6b3a76400008025a028ef61340bd939bc2195fe537567866003e1a15d3c71ff63e1590620aa636276a067cbe9d8997f761aecb703304b3800ccf555c9f3dc64214b297fb1966a3b6d83",
		signed.Raw)
}

func TestSignThenDecode(t *testing.T) {
	out, err := run(t, testKeyHex+"\n", "sign",
		"--nonce", "0",
		"--gas-limit", "60000",
		"--max-fee", "30",
		"--tip", "1.5",
		"--to", "0x1234567890123456789012345678901234567890",
		"--erc20-to", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed",
		"--erc20-amount", "1000000",
	)
	require.NoError(t, err)
	var signed signedOutput
	require.NoError(t, json.Unmarshal([]byte(out), &signed))
	assert.Equal(t, "eip1559", signed.Type)
	assert.True(t, strings.HasPrefix(signed.Raw, "0x02"))

	out, err = run(t, "", "decode", signed.Raw)
	require.NoError(t, err)
	var decoded decodedOutput
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, signed.From, decoded.From)
	assert.Equal(t, signed.Hash, decoded.Hash)
	assert.Equal(t, "11155111", decoded.ChainID)
	assert.Equal(t, "1500000000", decoded.MaxPriorityFeePerGas)
	assert.True(t, strings.HasPrefix(decoded.Data, "0xa9059cbb"))
	assert.Equal(t, "0", decoded.Value)
}

func TestSignCommand_MissingField(t *testing.T) {
	_, err := run(t, testKeyHex+"\n", "sign",
		"--nonce", "0",
		"--max-fee", "30",
		"--tip", "1",
		"--to", "0x1234567890123456789012345678901234567890",
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gasLimit")
}

func TestBalanceCommand(t *testing.T) {
	url := fakeNode(t, map[string]any{
		"eth_chainId":    "0xaa36a7",
		"eth_getBalance": "0x14d1120d7b160000",
	})
	out, err := run(t, "", "--rpc", url, "balance", "0x9858EfFD232B4033E47d90003D41EC34EcaEda94")
	require.NoError(t, err)

	var bal balanceOutput
	require.NoError(t, json.Unmarshal([]byte(out), &bal))
	assert.Equal(t, "1500000000000000000", bal.Wei)
	assert.Equal(t, "1.5", bal.Ether)
}

func TestBalanceCommand_WrongChain(t *testing.T) {
	url := fakeNode(t, map[string]any{"eth_chainId": "0x1"})
	_, err := run(t, "", "--rpc", url, "balance", "0x9858EfFD232B4033E47d90003D41EC34EcaEda94")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "configured chain")
}

func TestSendCommand(t *testing.T) {
	url := fakeNode(t, map[string]any{
		"eth_chainId":             "0xaa36a7",
		"eth_getTransactionCount": "0x3",
		"eth_estimateGas":         "0x5208",
		"eth_sendRawTransaction":  testTxHash,
	})
	out, err := run(t, testKeyHex+"\n", "--rpc", url, "send",
		"--to", "0x1234567890123456789012345678901234567890",
		"--value", "0.01",
		"--max-fee", "30",
		"--tip", "2",
		"--idempotency-key", "order-1",
	)
	require.NoError(t, err)

	var sent struct {
		Hash     string `json:"hash"`
		Nonce    uint64 `json:"nonce"`
		GasLimit uint64 `json:"gas_limit"`
		Type     string `json:"type"`
		RawTx    string `json:"raw_tx"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &sent))
	assert.Equal(t, uint64(3), sent.Nonce)
	assert.Equal(t, uint64(23100), sent.GasLimit)
	assert.Equal(t, "eip1559", sent.Type)
	assert.Len(t, sent.Hash, 66)
}

func TestReceiptCommand_Pending(t *testing.T) {
	url := fakeNode(t, map[string]any{
		"eth_chainId":               "0xaa36a7",
		"eth_getTransactionReceipt": nil,
	})
	out, err := run(t, "", "--rpc", url, "receipt", testTxHash)
	require.NoError(t, err)
	assert.Contains(t, out, `"status": "pending"`)
	assert.Contains(t, out, testTxHash)
}
