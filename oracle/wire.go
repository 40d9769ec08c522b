package oracle

// JSON bodies exchanged between HTTP and Server. Binary fields are standard base64.

type decryptRequest struct {
	Ciphertext string `json:"ciphertext"`
}

type decryptResponse struct {
	Valid bool `json:"valid"`
}

type challengeResponse struct {
	Ciphertext string `json:"ciphertext"`
	BlockSize  int    `json:"block_size"`
	Cipher     string `json:"cipher"`
}

type errorResponse struct {
	Error string `json:"error"`
}
