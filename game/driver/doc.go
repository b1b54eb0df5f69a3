// Package driver runs the control loop around a snake game.
//
// Each tick the driver takes the pending action from an InputSource, asks
// a Stepper to advance the game, and either renders the new board or, on a
// terminal step, hands the result to a Reporter and stops. Two steppers are
// provided: EngineStepper over the explicit engine and GridStepper, which
// runs engine.Advance on a raw numeric grid.
//
// Usage:
//
//	eng, _ := engine.NewEngine(engine.DefaultConfig())
//	slot := engine.NewActionSlot()
//	d := driver.New(driver.NewEngineStepper(eng), slot,
//		driver.NewTextRenderer(os.Stdout, true), driver.NewScoreReporter(os.Stdout),
//		100*time.Millisecond)
//	go driver.ReadKeys(ctx, os.Stdin, slot)
//	final, err := d.Run(ctx)
package driver
