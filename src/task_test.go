package ags

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskTypeStrings(t *testing.T) {
	assert.Equal(t, "Tic", TaskTic.String())
	assert.Equal(t, "ClearBuffer", TaskClearBuffer.String())
	assert.Equal(t, "SwitchBufferFlag", TaskSwitchBufferFlag.String())
}

func TestTaskWorkerExecutesInFIFOOrder(t *testing.T) {
	sc := newTestSoundcard(t)

	got := make(chan uint, 3)
	sc.OnTic(func(noteOffset uint) { got <- noteOffset })

	// Three Tic tasks with distinct note offsets published in between; the
	// worker must deliver each before the next offset overwrite.
	for i := uint(1); i <= 3; i++ {
		sc.SetNoteOffset(i)
		sc.launcher.AddTaskAll([]Task{{Type: TaskTic, Soundcard: sc.Soundcard}})

		select {
		case n := <-got:
			assert.Equal(t, i, n)
		case <-time.After(time.Second):
			t.Fatalf("task worker never delivered Tic notification %d", i)
		}
	}
}

func TestBufferRotationReturnsToSameAddressAfterNGenerations(t *testing.T) {
	sc := newTestSoundcard(t)
	n := sc.ringBuffer.Generations()

	before := sc.GetBuffer()

	tasks := make([]Task, 0, n)
	for i := 0; i < n; i++ {
		tasks = append(tasks, Task{Type: TaskSwitchBufferFlag, Soundcard: sc.Soundcard})
	}
	sc.launcher.AddTaskAll(tasks)
	sc.launcher.Shutdown() // drains the queue and joins the worker

	after := sc.GetBuffer()
	require.NotEmpty(t, before)
	assert.Same(t, &before[0], &after[0], "after exactly N SwitchBufferFlag tasks the current buffer must be the same generation")
}

func TestTicEmitsTicClearSwitchTriplePerBlock(t *testing.T) {
	sc := newTestSoundcard(t)

	indexBefore := sc.ringBuffer.CurrentIndex()
	absBefore := sc.GetNoteOffsetAbsolute()

	ticSeen := make(chan struct{}, 1)
	sc.OnTic(func(uint) { ticSeen <- struct{}{} })

	sc.Tic()

	select {
	case <-ticSeen:
	case <-time.After(time.Second):
		t.Fatal("Tic task never notified consumers")
	}

	// The ClearBuffer and SwitchBufferFlag tasks ride behind the Tic task in
	// FIFO order; once the rotation lands the triple is complete.
	deadline := time.Now().Add(time.Second)
	for sc.ringBuffer.CurrentIndex() == indexBefore {
		if time.Now().After(deadline) {
			t.Fatal("SwitchBufferFlag task never rotated the generation index")
		}
		time.Sleep(time.Millisecond)
	}

	assert.Equal(t, (indexBefore+1)%sc.ringBuffer.Generations(), sc.ringBuffer.CurrentIndex())
	assert.GreaterOrEqual(t, sc.GetNoteOffsetAbsolute(), absBefore)
}

func TestTaskLauncherShutdownDrainsPendingTasks(t *testing.T) {
	sc := newTestSoundcard(t)

	sc.launcher.AddTaskAll([]Task{
		{Type: TaskSwitchBufferFlag, Soundcard: sc.Soundcard},
		{Type: TaskSwitchBufferFlag, Soundcard: sc.Soundcard},
	})
	sc.launcher.Shutdown()

	assert.Equal(t, 2, sc.ringBuffer.CurrentIndex(), "pending tasks must complete before the worker exits")
}
