//go:build amd64

package spinlock

// cpuRelax executes PAUSE.
func cpuRelax()
