// Package ice drives a chain of addressable ICE modules sharing one serial
// control channel.
//
// Each module (slave) sits in a numbered slot and only listens after the
// channel has been switched to it with a "#slave N" command. A Controller
// keeps track of the selected slot and issues the switch only when the
// target changes.
//
// # Synchronous commands
//
//	line, _ := transport.New()
//	ctrl, _ := ice.New(line, ice.WithLogger(logger))
//	if err := ctrl.Open("/dev/ttyACM0"); err != nil {
//	    log.Fatal(err)
//	}
//	defer ctrl.SerialClose()
//
//	resp, err := ctrl.Send(ctx, "temp?", 3, nil)
//	if errors.Is(err, ice.ErrProtocol) {
//	    // the module answered with "I2C Error..."
//	}
//
// # Queued commands
//
// Enqueue returns as soon as the command is handed to the transport. The
// owner polls ProcessResponses, which invokes each callback once with a
// Result:
//
//	ctrl.EnqueueTo(ctx, "laser on", 3, ice.CallbackFunc(func(r ice.Result) {
//	    if !r.OK() {
//	        log.Print(r.Err)
//	    }
//	}))
//	...
//	ctrl.ProcessResponses()
//
// A Controller is not safe for concurrent use; one goroutine owns it.
package ice
