package simulator

import (
	"github.com/sirupsen/logrus"
)

var log = logrus.WithField("module", "simulator")
