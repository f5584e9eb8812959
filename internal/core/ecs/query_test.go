package ecs

import "testing"

func TestEach2OnlyVisitsEntitiesInBothStores(t *testing.T) {
	a := NewStore[int]()
	b := NewStore[string]()

	for i := EntityID(1); i <= 5; i++ {
		v := int(i)
		a.Set(i, &v)
	}
	for _, id := range []EntityID{2, 4} {
		v := "x"
		b.Set(id, &v)
	}

	var got []EntityID
	Each2(a, b, func(id EntityID, x *int, y *string) { got = append(got, id) })

	want := []EntityID{2, 4}
	if len(got) != len(want) {
		t.Fatalf("Each2 visited %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Each2()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestEach2IsSymmetricRegardlessOfArgumentOrder(t *testing.T) {
	a := NewStore[int]()
	b := NewStore[int]()
	for i := EntityID(1); i <= 3; i++ {
		v := int(i)
		a.Set(i, &v)
	}
	for i := EntityID(2); i <= 6; i++ {
		v := int(i) * 10
		b.Set(i, &v)
	}

	var forward, reverse []EntityID
	Each2(a, b, func(id EntityID, x, y *int) { forward = append(forward, id) })
	Each2(b, a, func(id EntityID, x, y *int) { reverse = append(reverse, id) })

	if len(forward) != len(reverse) {
		t.Fatalf("Each2(a,b) visited %d entities, Each2(b,a) visited %d", len(forward), len(reverse))
	}
}

func TestEach3RequiresAllThreeComponents(t *testing.T) {
	a := NewStore[int]()
	b := NewStore[int]()
	c := NewStore[int]()

	for _, id := range []EntityID{1, 2, 3} {
		v := 0
		a.Set(id, &v)
	}
	for _, id := range []EntityID{2, 3} {
		v := 0
		b.Set(id, &v)
	}
	for _, id := range []EntityID{3} {
		v := 0
		c.Set(id, &v)
	}

	var got []EntityID
	Each3(a, b, c, func(id EntityID, x, y, z *int) { got = append(got, id) })
	if len(got) != 1 || got[0] != 3 {
		t.Fatalf("Each3 = %v, want [3]", got)
	}
}

func TestEach4RequiresAllFourComponents(t *testing.T) {
	stores := make([]*Store[int], 4)
	for i := range stores {
		stores[i] = NewStore[int]()
	}
	// Entity 1 has all four; entity 2 is missing the last.
	for i, s := range stores {
		v := i
		s.Set(1, &v)
		if i < 3 {
			s.Set(2, &v)
		}
	}

	var got []EntityID
	Each4(stores[0], stores[1], stores[2], stores[3], func(id EntityID, a, b, c, d *int) {
		got = append(got, id)
	})
	if len(got) != 1 || got[0] != 1 {
		t.Fatalf("Each4 = %v, want [1]", got)
	}
}
