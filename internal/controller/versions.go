package controller

// OutsideExecutionVersion is the protocol generation an account class
// supports for externally submitted transactions.
type OutsideExecutionVersion string

const (
	OutsideExecutionV2 OutsideExecutionVersion = "2"
	OutsideExecutionV3 OutsideExecutionVersion = "3"
)

// DefaultOutsideExecutionVersion is used for absent or unknown class hashes.
const DefaultOutsideExecutionVersion = OutsideExecutionV3

// Entrypoint returns the account entrypoint that accepts outside
// executions of this version.
func (v OutsideExecutionVersion) Entrypoint() string {
	switch v {
	case OutsideExecutionV2:
		return "execute_from_outside_v2"
	default:
		return "execute_from_outside_v3"
	}
}

type VersionInfo struct {
	Version                 string                  `json:"version"`
	Hash                    string                  `json:"hash"`
	OutsideExecutionVersion OutsideExecutionVersion `json:"outside_execution_version"`
	Changes                 []string                `json:"changes"`
}

// Versions lists every released controller class, oldest first. Append
// new releases at the end; never edit or reorder existing entries.
var Versions = []VersionInfo{
	{
		Version:                 "1.0.4",
		Hash:                    "0x24a9edbfa7082accfceabf6a92d7160086f346d622f28741bf1c651c412c9ab",
		OutsideExecutionVersion: OutsideExecutionV2,
		Changes:                 []string{},
	},
	{
		Version:                 "1.0.5",
		Hash:                    "0x32e17891b6cc89e0c3595a3df7cee760b5993744dc8dfef2bd4d443e65c0f40",
		OutsideExecutionVersion: OutsideExecutionV3,
		Changes:                 []string{"Improved session token implementation"},
	},
	{
		Version:                 "1.0.6",
		Hash:                    "0x59e4405accdf565112fe5bf9058b51ab0b0e63665d280b816f9fe4119554b77",
		OutsideExecutionVersion: OutsideExecutionV3,
		Changes:                 []string{"Support session key message signing", "Support session guardians", "Improve paymaster nonce management"},
	},
	{
		Version:                 "1.0.7",
		Hash:                    "0x3e0a04bab386eaa51a41abe93d8035dccc96bd9d216d44201266fe0b8ea1115",
		OutsideExecutionVersion: OutsideExecutionV3,
		Changes:                 []string{"Unified message signature verification", "Improved session message signature"},
	},
	{
		Version:                 "1.0.8",
		Hash:                    "0x511dd75da368f5311134dee2356356ac4da1538d2ad18aa66d57c47e3757d59",
		OutsideExecutionVersion: OutsideExecutionV3,
		Changes:                 []string{"Improved session message signature"},
	},
	{
		Version:                 "1.0.9",
		Hash:                    "0x743c83c41ce99ad470aa308823f417b2141e02e04571f5c0004e743556e7faf",
		OutsideExecutionVersion: OutsideExecutionV3,
		Changes:                 []string{"Wildcard session support"},
	},
}
