package transport

import (
	"encoding/base64"
	"encoding/binary"
	"unicode/utf16"
)

// PowerShellCommand wraps a script for execution through powershell.exe.
// -EncodedCommand takes the script as base64 over UTF-16LE, which survives
// both WinRM's cmd.exe argument handling and whatever shell an SSH session
// lands in, with no quoting at all.
func PowerShellCommand(script string) string {
	units := utf16.Encode([]rune(script))
	raw := make([]byte, 2*len(units))
	for i, u := range units {
		binary.LittleEndian.PutUint16(raw[2*i:], u)
	}
	return "powershell.exe -NoProfile -NonInteractive -EncodedCommand " +
		base64.StdEncoding.EncodeToString(raw)
}
