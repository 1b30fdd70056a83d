package models

import "testing"

func TestFingerprintKeyDistinguishesMethodAndDigest(t *testing.T) {
	a := Fingerprint{Size: 100, Digest: [16]byte{1, 2, 3}, Method: Tail}
	b := Fingerprint{Size: 100, Digest: [16]byte{1, 2, 3}, Method: Full}
	if a.Key() == b.Key() {
		t.Errorf("expected distinct keys for Tail vs Full digests, got %q for both", a.Key())
	}

	c := Fingerprint{Size: 100, Digest: [16]byte{9, 9, 9}, Method: Tail}
	if a.Key() == c.Key() {
		t.Error("expected distinct keys for different digests")
	}
}

func TestMediaGroupAllPaths(t *testing.T) {
	g := MediaGroup{
		PrimaryPath: "IMG_0001.HEIC",
		Satellites: []Satellite{
			{Path: "IMG_0001.MOV", Kind: SatelliteMotion},
			{Path: "IMG_0001.AAE", Kind: SatelliteSidecar},
		},
	}

	all := g.AllPaths()
	want := []string{"IMG_0001.HEIC", "IMG_0001.MOV", "IMG_0001.AAE"}
	if len(all) != len(want) {
		t.Fatalf("AllPaths() = %v, want %v", all, want)
	}
	for i := range want {
		if all[i] != want[i] {
			t.Errorf("AllPaths()[%d] = %q, want %q", i, all[i], want[i])
		}
	}

	if motion, ok := g.Motion(); !ok || motion != "IMG_0001.MOV" {
		t.Errorf("Motion() = (%q, %v), want (IMG_0001.MOV, true)", motion, ok)
	}
	if aae, ok := g.SidecarAAE(); !ok || aae != "IMG_0001.AAE" {
		t.Errorf("SidecarAAE() = (%q, %v), want (IMG_0001.AAE, true)", aae, ok)
	}
}

func TestMediaGroupWithoutSatellitesHasNoMotionOrSidecar(t *testing.T) {
	g := MediaGroup{PrimaryPath: "IMG_0002.JPG"}
	if _, ok := g.Motion(); ok {
		t.Error("expected no motion satellite")
	}
	if _, ok := g.SidecarAAE(); ok {
		t.Error("expected no sidecar satellite")
	}
	if all := g.AllPaths(); len(all) != 1 || all[0] != "IMG_0002.JPG" {
		t.Errorf("AllPaths() = %v, want [IMG_0002.JPG]", all)
	}
}
