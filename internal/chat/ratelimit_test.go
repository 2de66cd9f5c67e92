package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiter_ElevenInOneSecondAdmitsTen(t *testing.T) {
	req := require.New(t)
	l := NewLimiter(10, time.Minute)
	base := time.Now()

	admitted := 0
	for i := 0; i < 11; i++ {
		if l.Admit("c1", base.Add(time.Duration(i)*90*time.Millisecond)) {
			admitted++
		}
	}
	req.Equal(10, admitted)
}

func TestLimiter_WindowResetsAfterElapsing(t *testing.T) {
	req := require.New(t)
	l := NewLimiter(2, time.Minute)
	base := time.Now()

	req.True(l.Admit("c1", base))
	req.True(l.Admit("c1", base.Add(time.Second)))
	req.False(l.Admit("c1", base.Add(2*time.Second)))

	// once the window has fully elapsed the count restarts
	req.True(l.Admit("c1", base.Add(61*time.Second)))
	req.True(l.Admit("c1", base.Add(62*time.Second)))
	req.False(l.Admit("c1", base.Add(63*time.Second)))
}

func TestLimiter_ConnectionsAreIndependent(t *testing.T) {
	req := require.New(t)
	l := NewLimiter(1, time.Minute)
	now := time.Now()

	req.True(l.Admit("c1", now))
	req.False(l.Admit("c1", now))
	req.True(l.Admit("c2", now))
}

func TestLimiter_ForgetDropsState(t *testing.T) {
	req := require.New(t)
	l := NewLimiter(1, time.Minute)
	now := time.Now()

	req.True(l.Admit("c1", now))
	req.False(l.Admit("c1", now))

	l.Forget("c1")
	req.True(l.Admit("c1", now))
}
