package utils

import (
	"fmt"
	"time"
)

// GenerateFormVersionCode produces a new version code of the form "06-01-N"
// that does not collide with any of the codes already in use.
func GenerateFormVersionCode(usedCodes []string) string {
	t := time.Now()

	date := t.Format("06-01")

	counter := 1
	newCode := fmt.Sprintf("%s-%d", date, counter)
	for {
		codeAlreadyPresent := false
		for _, c := range usedCodes {
			if c == newCode {
				codeAlreadyPresent = true
				break
			}
		}
		if !codeAlreadyPresent {
			break
		} else {
			counter += 1
			newCode = fmt.Sprintf("%s-%d", date, counter)
		}
	}
	return newCode
}
