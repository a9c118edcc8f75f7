package physics

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestGravityBoard(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Gravity Board Suite")
}
