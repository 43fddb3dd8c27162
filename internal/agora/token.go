package agora

import (
	"time"

	rtctokenbuilder "github.com/AgoraIO/Tools/DynamicKey/AgoraDynamicKey/go/src/rtctokenbuilder2"
)

// TokenMinter issues RTC join tokens with the publisher role. It implements
// orchestrator.TokenMinter.
type TokenMinter struct {
	appID          string
	appCertificate string
}

// NewTokenMinter returns a minter signing with the given app credentials.
func NewTokenMinter(appID, appCertificate string) *TokenMinter {
	return &TokenMinter{appID: appID, appCertificate: appCertificate}
}

// Mint builds a token allowing subject to publish in channel. tokenTTL bounds
// the token itself, privilegeTTL the privileges it grants.
func (m *TokenMinter) Mint(channel, subject string, tokenTTL, privilegeTTL time.Duration) (string, error) {
	return rtctokenbuilder.BuildTokenWithUserAccount(
		m.appID, m.appCertificate, channel, subject,
		rtctokenbuilder.RolePublisher,
		uint32(tokenTTL.Seconds()), uint32(privilegeTTL.Seconds()),
	)
}
