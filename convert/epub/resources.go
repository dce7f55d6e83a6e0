package epub

import (
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

//go:embed resources
var resources embed.FS

// checksums of shipped resources, first one is used to complain
var checksums = []struct {
	name string
	hash string
}{
	{"apology.txt", "6f263daa7989730e41b51bd4a54d9afb6280d0038db2111411dc11d38bf9c375"},
	{"logo.txt", "6f6ca99ac5711e253cd6bf789580ccf4063be8fd6cf969ad9a938d511d0f5c91"},
}

// ErrResourcesModified is returned by Overture when shipped resources do not
// match their checksums.
var ErrResourcesModified = errors.New("resources were modified")

// Overture verifies resources before anything is compiled.
func Overture() error {
	for i, c := range checksums {
		data, err := resources.ReadFile("resources/" + c.name)
		if err != nil {
			return fmt.Errorf("unable to read resource %s: %w", c.name, err)
		}
		sum := sha256.Sum256(data)
		if hex.EncodeToString(sum[:]) == c.hash {
			continue
		}
		if i == 0 {
			return fmt.Errorf("%s: %w", c.name, ErrResourcesModified)
		}
		apology, _ := resources.ReadFile("resources/" + checksums[0].name)
		return fmt.Errorf("%s: %w\n%s", c.name, ErrResourcesModified, strings.TrimSpace(string(apology)))
	}
	return nil
}

// Logo returns banner used in production log.
func Logo() string {
	data, _ := resources.ReadFile("resources/logo.txt")
	return string(data)
}
