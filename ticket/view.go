package ticket

import "encoding/hex"

// View is the listing form of a finalized ticket, used by RPC responses and
// CLI output. Byte fields are hex encoded.
type View struct {
	SupportedHash string `json:"supportedHash"`
	WorkerPubKey  string `json:"workerpubkey"`
	SupportPubKey string `json:"supportpubkey"`
	Timestamp     uint32 `json:"timestamp"`
	Nonce         uint32 `json:"nonce"`
	Hash          string `json:"hash"`
	Value         uint32 `json:"value"`
}

func (r *Ref) View() View {
	return View{
		SupportedHash: hex.EncodeToString([]byte(r.t.SupportedHash)),
		WorkerPubKey:  hex.EncodeToString([]byte(r.t.WorkerPubKey)),
		SupportPubKey: hex.EncodeToString([]byte(r.t.SupportPubKey)),
		Timestamp:     r.t.Timestamp,
		Nonce:         r.t.Nonce,
		Hash:          r.digest.String(),
		Value:         r.digest.Value(),
	}
}
