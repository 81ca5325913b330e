// Copyright 2018 Brett Vickers. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"log/slog"

	"github.com/jeandeaual/go-locale"
	"golang.org/x/text/message"
)

// Create a printer for counts and other numbers, formatted for the
// user's locale.
func newPrinter(logger *slog.Logger) *message.Printer {
	locales, err := locale.GetLocales()
	if err != nil {
		logger.Debug("Locale lookup failed", slog.Any("err", err))
	}
	if len(locales) == 0 {
		locales = []string{"en-US"}
	}
	return message.NewPrinter(message.MatchLanguage(locales...))
}
