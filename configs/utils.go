package configs

import (
	"fmt"
	"github.com/goccy/go-json"
	"log"
	"strconv"
	"time"
)

func TxnPrint(tid uint64, format string, a ...interface{}) {
	if ShowDebugInfo {
		if !LogToFile {
			fmt.Printf(time.Now().Format("15:04:05.00")+" <---> "+"TXN"+strconv.FormatUint(tid, 10)+":"+format+"\n", a...)
		} else {
			log.Printf(time.Now().Format("15:04:05.00")+" <---> "+"TXN"+strconv.FormatUint(tid, 10)+":"+format+"\n", a...)
		}
	}
}

func DPrintf(format string, a ...interface{}) {
	if ShowDebugInfo {
		if !LogToFile {
			fmt.Printf(time.Now().Format("15:04:05.00")+" <---> "+format+"\n", a...)
		} else {
			log.Printf(time.Now().Format("15:04:05.00")+" <---> "+format+"\n", a...)
		}
	}
}

func TimeTrack(start time.Time, name string, TID uint64) {
	TPrintf("TXN" + strconv.FormatUint(TID, 10) + ": time cost for " + name + " : " + time.Since(start).String())
}

func TimeLoad(start time.Time, name string, TID uint64, latency *time.Duration) {
	if latency == nil || start.IsZero() {
		return
	}
	*latency = time.Since(start)
	TPrintf("TXN" + strconv.FormatUint(TID, 10) + ": time cost for " + name + " : " + (*latency).String())
}

func TPrintf(format string, a ...interface{}) {
	if ShowTestInfo {
		if !LogToFile {
			fmt.Printf(time.Now().Format("15:04:05.00")+" <---> "+format+"\n", a...)
		} else {
			log.Printf(time.Now().Format("15:04:05.00")+" <---> "+format+"\n", a...)
		}
	}
}

func JToString(v interface{}) string {
	byt, _ := json.Marshal(v)
	return string(byt)
}

func JPrint(v interface{}) {
	byt, _ := json.Marshal(v)
	fmt.Println(string(byt))
}

// Assert panics with msg if cond is false. Used for invariants that must
// never be violated by a correct lock manager.
func Assert(cond bool, msg string) bool {
	if !cond {
		panic("[ERROR] assertion failed: " + msg)
	}
	return cond
}

// Warn logs msg when cond is false and ShowWarnings is enabled. Unlike
// Assert it never panics; it is for conditions that are suspicious but
// survivable (e.g. a retry count that is unexpectedly high).
func Warn(cond bool, msg string) bool {
	if ShowWarnings && !cond {
		if !LogToFile {
			fmt.Printf("[WARNING] " + msg + "\n")
		} else {
			log.Printf("[WARNING] " + msg + "\n")
		}
	}
	return cond
}

func CheckError(err error) {
	if err != nil {
		panic(err.Error())
	}
}
