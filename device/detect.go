package device

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// AutoDetect scans common serial device names for one that emits parseable
// readings at the given baud rate. Returns "" when nothing responds.
func AutoDetect(baud int) string {
	if runtime.GOOS == "windows" {
		// Scan COM1..COM64
		for i := 1; i <= 64; i++ {
			portName := fmt.Sprintf("COM%d", i)
			if TestPort(portName, baud) {
				return portName
			}
		}
		return ""
	}

	// Unix-like: try common device paths.
	candidates := make([]string, 0, 32)
	for _, pat := range []string{"/dev/ttyUSB*", "/dev/ttyACM*", "/dev/ttyS*", "/dev/cu.*"} {
		matches, _ := filepath.Glob(pat)
		for _, m := range matches {
			if _, err := os.Stat(m); err == nil {
				candidates = append(candidates, m)
			}
		}
	}
	for _, portName := range candidates {
		if TestPort(portName, baud) {
			return portName
		}
	}
	return ""
}

// TestPort tries to open the port and pull one reading off it.
func TestPort(name string, baud int) bool {
	sess, err := Connect(Config{Port: name, Baud: baud, ReadTimeout: 300 * time.Millisecond})
	if err != nil {
		return false
	}
	defer func() { _ = sess.Close() }()

	_, err = sess.ReadRaw()
	return err == nil
}
