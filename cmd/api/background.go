package main

import "fmt"

// background runs fn outside the request so slow side effects (mail) never
// hold up the response. run waits for these before the process exits.
func (app *application) background(fn func()) {
	app.wg.Add(1)

	go func() {
		defer app.wg.Done()
		defer func() {
			if err := recover(); err != nil {
				app.logger.Errorw("background task panicked", "error", fmt.Sprint(err))
			}
		}()

		fn()
	}()
}
