package engine

import "math"

const twoPi = 2 * math.Pi

// distEpsilon floors every distance before it is divided by, so forces
// stay finite at the exact center.
const distEpsilon = 0.1

// stepIdle drifts particles around their origins. A low-amplitude noise
// offset plus a radial breathing oscillation forms a moving target each
// particle is pulled toward; velocity decays so there is no net travel.
func (e *Engine) stepIdle(dt float32) {
	cfg := &e.cfg.Idle
	s := e.store

	drift := float32(cfg.DriftAmplitude)
	freq := cfg.DriftFrequency
	nt := e.clock * cfg.DriftSpeed
	breatheAmp := float32(cfg.BreatheAmp)
	// Wrap clock-derived phases once per tick so per-particle angle
	// normalization stays cheap at arbitrarily large simulation times
	breathePhase := float32(math.Mod(e.clock*cfg.BreatheFreq, twoPi))
	twinklePhase := float32(math.Mod(e.clock*cfg.TwinkleFreq, twoPi))
	twinkleAmp := float32(cfg.TwinkleAmp)
	baseOpacity := float32(cfg.BaseOpacity)
	approach := float32(cfg.Approach) * dt
	damping := float32(cfg.VelocityDamping)
	maxOpacity := e.cfg.Derived.MaxOpacity32

	for i := 0; i < s.N; i++ {
		o := s.Origin[i]
		phase := s.Threshold[i] * twoPi

		nx := float32(e.field.Noise3D(float64(o.X)*freq, float64(o.Y)*freq, nt))
		ny := float32(e.field.Noise3D(float64(o.X)*freq+31.7, float64(o.Y)*freq, nt))
		nz := float32(e.field.Noise3D(float64(o.X)*freq, float64(o.Y)*freq+17.3, nt))

		breathe := 1 + breatheAmp*fastSin(breathePhase+phase)
		tx := o.X*breathe + nx*drift
		ty := o.Y*breathe + ny*drift
		tz := o.Z + nz*drift*0.5

		v := &s.Vel[i]
		v.X *= damping
		v.Y *= damping
		v.Z *= damping

		p := &s.Pos[i]
		p.X += (tx-p.X)*approach + v.X*dt
		p.Y += (ty-p.Y)*approach + v.Y*dt
		p.Z += (tz-p.Z)*approach + v.Z*dt

		s.Opacity[i] = clampFloat(baseOpacity+twinkleAmp*fastSin(twinklePhase+phase), 0, maxOpacity)
		s.Size[i] = s.BaseSize[i]

		e.healParticle(i)
	}
}

// stepDissolve launches particles radially outward in staggered order: a
// particle receives its one-time impulse only once dissolve progress
// passes its threshold. Launched particles ride curl-noise turbulence
// with multiplicative velocity damping while opacity decays to a floor.
func (e *Engine) stepDissolve(dt float32) {
	cfg := &e.cfg.Dissolve
	s := e.store

	progress := e.stateProgress(cfg.Duration)
	baseForce := float32(cfg.BaseForce)
	forceJitter := float32(cfg.ForceJitter)
	angleJitter := float32(cfg.AngleJitter)
	zJitter := float32(cfg.ZJitter)
	turbulence := float32(cfg.Turbulence) * dt
	noiseFreq := cfg.NoiseFreq
	damping := float32(cfg.Damping)
	floor := float32(cfg.OpacityFloor)
	fade := float32(cfg.FadeRate) * dt
	nt := e.clock * 0.5

	for i := 0; i < s.N; i++ {
		p := &s.Pos[i]
		v := &s.Vel[i]

		if !s.Launched[i] {
			if progress <= s.Threshold[i] {
				// Holding until this particle's turn; keep it parked
				continue
			}
			s.Launched[i] = true

			// One-time radial impulse away from center, with angular
			// and out-of-plane jitter for organic spread
			ang := float32(math.Atan2(float64(s.Origin[i].Y), float64(s.Origin[i].X)))
			ang += (e.rng.Float32()*2 - 1) * angleJitter
			mag := baseForce + e.rng.Float32()*forceJitter
			v.X = fastCos(ang) * mag
			v.Y = fastSin(ang) * mag
			v.Z = (e.rng.Float32()*2 - 1) * zJitter
		}

		cx, cy := e.field.Curl2D(float64(p.X)*noiseFreq, float64(p.Y)*noiseFreq, nt)
		v.X += float32(cx) * turbulence
		v.Y += float32(cy) * turbulence

		v.X *= damping
		v.Y *= damping
		v.Z *= damping

		p.X += v.X * dt
		p.Y += v.Y * dt
		p.Z += v.Z * dt

		s.Opacity[i] += (floor - s.Opacity[i]) * fade

		e.healParticle(i)
	}
}

// stepVortex applies a tangential force proportional to distance from
// center plus a soft radial pull toward a per-particle orbital shell, so
// the swarm holds a ring shape instead of collapsing or dispersing.
func (e *Engine) stepVortex(dt float32) {
	cfg := &e.cfg.Vortex
	s := e.store

	swirl := float32(cfg.Swirl)
	contain := float32(cfg.Containment)
	baseRadius := float32(cfg.BaseRadius)
	spread := float32(cfg.RadiusSpread)
	shells := cfg.ShellCount
	if shells < 1 {
		shells = 1
	}
	turbulence := float32(cfg.Turbulence) * dt
	noiseFreq := cfg.NoiseFreq
	damping := float32(cfg.Damping)
	pulseAmp := float32(cfg.PulseAmp)
	pulsePhase := float32(math.Mod(e.clock*cfg.PulseFreq, twoPi))
	baseOpacity := float32(cfg.BaseOpacity)
	maxOpacity := e.cfg.Derived.MaxOpacity32
	nt := e.clock * 0.4

	for i := 0; i < s.N; i++ {
		p := &s.Pos[i]
		v := &s.Vel[i]

		dist := fastSqrt(p.X*p.X + p.Y*p.Y)
		if dist < distEpsilon {
			dist = distEpsilon
		}
		inv := 1 / dist
		rx := p.X * inv
		ry := p.Y * inv

		// Orbital shell assigned by slot index
		targetR := baseRadius + float32(i%shells)*spread

		// Tangential swirl plus radial containment
		v.X += (-ry*swirl*dist + rx*(targetR-dist)*contain) * dt
		v.Y += (rx*swirl*dist + ry*(targetR-dist)*contain) * dt
		v.Z += -p.Z * contain * dt

		cx, cy := e.field.Curl2D(float64(p.X)*noiseFreq, float64(p.Y)*noiseFreq, nt)
		v.X += float32(cx) * turbulence
		v.Y += float32(cy) * turbulence

		v.X *= damping
		v.Y *= damping
		v.Z *= damping

		p.X += v.X * dt
		p.Y += v.Y * dt
		p.Z += v.Z * dt

		phase := s.Threshold[i] * twoPi
		s.Opacity[i] = clampFloat(baseOpacity+pulseAmp*fastSin(pulsePhase+phase), 0, maxOpacity)

		e.healParticle(i)
	}
}

// stepWaveform pushes concentric phase waves through the swarm. The radial
// push scales with the externally supplied audio amplitude; opacity and
// size scale with amplitude within their configured ceilings.
func (e *Engine) stepWaveform(dt float32) {
	cfg := &e.cfg.Waveform
	s := e.store

	amp := e.amplitude
	sensitivity := float32(cfg.Sensitivity)
	waveFreq := float32(cfg.WaveFreq)
	wavePhase := float32(math.Mod(e.clock*cfg.WaveSpeed, twoPi))
	tangential := float32(cfg.Tangential)
	damping := float32(cfg.Damping)
	opacity := clampFloat(float32(cfg.BaseOpacity)+amp*float32(cfg.OpacityGain), 0, e.cfg.Derived.MaxOpacity32)
	sizeScale := 1 + amp*float32(cfg.SizeGain)
	maxSize := e.cfg.Derived.MaxSize32

	for i := 0; i < s.N; i++ {
		p := &s.Pos[i]
		v := &s.Vel[i]

		dist := fastSqrt(p.X*p.X + p.Y*p.Y)
		if dist < distEpsilon {
			dist = distEpsilon
		}
		inv := 1 / dist
		rx := p.X * inv
		ry := p.Y * inv

		// Concentric wave: phase advances outward over time
		push := fastSin(dist*waveFreq-wavePhase) * amp * sensitivity

		v.X += (rx*push - ry*tangential) * dt
		v.Y += (ry*push + rx*tangential) * dt

		v.X *= damping
		v.Y *= damping
		v.Z *= damping

		p.X += v.X * dt
		p.Y += v.Y * dt
		p.Z += v.Z * dt

		s.Opacity[i] = opacity
		s.Size[i] = clampFloat(s.BaseSize[i]*sizeScale, 0, maxSize)

		e.healParticle(i)
	}
}

// stepReform spring-pulls every particle back to its immutable origin.
// Stiffness grows with progress so early motion is gentle and the final
// convergence is snappy; a decaying perpendicular term makes particles
// spiral inward. Near the end particles snap exactly to origin with zero
// velocity, and at full progress all of them do.
func (e *Engine) stepReform(dt float32) {
	cfg := &e.cfg.Reform
	s := e.store

	progress := e.stateProgress(cfg.Duration)
	stiffness := float32(cfg.StiffnessMin) + (float32(cfg.StiffnessMax)-float32(cfg.StiffnessMin))*progress
	dampCoef := float32(cfg.DampingCoef) * dt
	if dampCoef > 1 {
		dampCoef = 1
	}
	spiral := float32(cfg.SpiralForce) * (1 - progress)
	snapDist := float32(cfg.SnapDistance)
	snapProgress := float32(cfg.SnapProgress)
	floor := float32(e.cfg.Dissolve.OpacityFloor)
	fadeIn := floor + (float32(cfg.OpacityTarget)-floor)*progress
	maxOpacity := e.cfg.Derived.MaxOpacity32

	for i := 0; i < s.N; i++ {
		p := &s.Pos[i]
		v := &s.Vel[i]
		o := s.Origin[i]

		dx := o.X - p.X
		dy := o.Y - p.Y
		dz := o.Z - p.Z
		dist := fastSqrt(dx*dx + dy*dy + dz*dz)

		if progress >= 1 || (dist < snapDist && progress > snapProgress) {
			// Snap prevents asymptotic jitter around the origin
			*p = o
			*v = Vec3{}
		} else {
			// Spring-damper toward origin
			v.X += dx*stiffness*dt - v.X*dampCoef
			v.Y += dy*stiffness*dt - v.Y*dampCoef
			v.Z += dz*stiffness*dt - v.Z*dampCoef

			// Decaying spiral so travel reads as an inward swirl
			flat := dist
			if flat < distEpsilon {
				flat = distEpsilon
			}
			v.X += -dy / flat * spiral * dt
			v.Y += dx / flat * spiral * dt

			p.X += v.X * dt
			p.Y += v.Y * dt
			p.Z += v.Z * dt
		}

		// Opacity fades back in with progress, never dimming a particle
		// that is already brighter
		if fadeIn > s.Opacity[i] {
			s.Opacity[i] = clampFloat(fadeIn, 0, maxOpacity)
		}
		s.Size[i] = s.BaseSize[i]

		e.healParticle(i)
	}
}
