package upgrade

import "crypto/tls"

// Protocols is the ALPN list the HTTPS listener offers, in preference
// order (spec §6.2: "offer {h3, h2, http/1.1} in order").
var Protocols = []string{"h3", "h2", "http/1.1"}

// ConfigureALPN sets cfg's NextProtos and GetConfigForClient so every
// TLS handshake on the HTTPS listener negotiates from Protocols, and
// dispatches onSelected once the client's ClientHello has been parsed,
// before the handshake completes.
func ConfigureALPN(cfg *tls.Config, onSelected func(negotiated string)) *tls.Config {
	clone := cfg.Clone()
	clone.NextProtos = Protocols
	base := clone.GetConfigForClient
	clone.GetConfigForClient = func(hello *tls.ClientHelloInfo) (*tls.Config, error) {
		if onSelected != nil {
			onSelected(SelectALPN(hello.SupportedProtos))
		}
		if base != nil {
			return base(hello)
		}
		return nil, nil
	}
	return clone
}

// SelectALPN picks the first entry of Protocols the peer also offered,
// returning "" if none match (the handshake then fails with
// no_application_protocol, per the TLS adapter's ALPN contract).
func SelectALPN(offered []string) string {
	for _, p := range Protocols {
		for _, o := range offered {
			if p == o {
				return p
			}
		}
	}
	return ""
}
