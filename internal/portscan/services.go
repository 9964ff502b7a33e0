package portscan

// UnknownService labels ports absent from the service table.
const UnknownService = "Unknown"

// serviceTable maps well-known ports to service labels. It only annotates
// results and never influences whether a port is reported.
var serviceTable = map[uint16]string{
	20:    "FTP-DATA",
	21:    "FTP",
	22:    "SSH",
	23:    "Telnet",
	25:    "SMTP",
	53:    "DNS",
	80:    "HTTP",
	110:   "POP3",
	143:   "IMAP",
	443:   "HTTPS",
	445:   "SMB",
	3306:  "MySQL",
	3389:  "RDP",
	5432:  "PostgreSQL",
	5900:  "VNC",
	6379:  "Redis",
	8080:  "HTTP-Proxy",
	27017: "MongoDB",
}

// sensitivePorts are flagged with a security note when found open.
var sensitivePorts = map[uint16]string{
	21:   "FTP transmits credentials in cleartext; prefer SFTP or FTPS",
	23:   "Telnet is unencrypted; replace with SSH",
	445:  "SMB exposed; restrict to trusted networks to limit wormable exploits",
	3389: "RDP exposed; put it behind a VPN or gateway and enforce NLA",
}

// ServiceName returns the label for port, or UnknownService.
func ServiceName(port uint16) string {
	if name, ok := serviceTable[port]; ok {
		return name
	}
	return UnknownService
}

// SecurityNote returns the warning for a sensitive port.
func SecurityNote(port uint16) (string, bool) {
	note, ok := sensitivePorts[port]
	return note, ok
}

// KnownServices returns a copy of the service table.
func KnownServices() map[uint16]string {
	out := make(map[uint16]string, len(serviceTable))
	for port, name := range serviceTable {
		out[port] = name
	}
	return out
}
