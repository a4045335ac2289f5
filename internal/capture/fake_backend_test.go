package capture

import "fmt"

// fakeBackend is a Backend that completes every copy immediately
// (PollMapped always reports ready on the first poll), filling the
// padded buffer with one solid color (0x42) so tests can verify
// de-padding without a GPU.
type fakeBackend struct {
	width, height int
	pitch         int
	color         byte
	fail          bool
}

func newFakeBackend(width, height int) *fakeBackend {
	return &fakeBackend{width: width, height: height, pitch: alignRow(width * 4), color: 0x42}
}

func (f *fakeBackend) QueueCopy(slot int) error {
	if f.fail {
		return fmt.Errorf("fake copy failure")
	}
	return nil
}

func (f *fakeBackend) PollMapped(slot int) (bool, error) {
	return !f.fail, nil
}

func (f *fakeBackend) Read(slot int) []byte {
	buf := make([]byte, f.pitch*f.height)
	for i := range buf {
		buf[i] = f.color
	}
	return buf
}
