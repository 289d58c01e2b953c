package main

import "os"

func isContainerID(s string) bool {
	if len(s) < 12 || len(s) > 64 {
		return false
	}
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			return false
		}
	}
	return true
}

// defaultSource returns this machine's sync identity. Hostnames that look
// like bare container ids get a readable prefix so the blob name stays
// recognisable in the shared folder.
func defaultSource() string {
	for _, env := range []string{"CLIPDAV_SOURCE", "HOSTNAME_FRIENDLY"} {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	h, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	if isContainerID(h) {
		return "container-" + h[:8]
	}
	return h
}
